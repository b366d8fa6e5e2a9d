// Package scraper extracts the downloads catalog from the account page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/go-fetch-episodes/config"
	"github.com/aluiziolira/go-fetch-episodes/models"
	"github.com/aluiziolira/go-fetch-episodes/parser"
	"github.com/aluiziolira/go-fetch-episodes/session"
	"github.com/gocolly/colly/v2"
)

// The WooCommerce class names below are a brittle, versioned contract with
// the target site; a markup change breaks extraction silently.
const (
	accountMarkerSelector = "div.woocommerce-MyAccount-content"
	downloadsRowSelector  = "table.woocommerce-table--order-downloads tr"
	titleCellSelector     = "td.download-product"
	fileLinkSelector      = "td.download-file a.woocommerce-MyAccount-downloads-file"
)

// ErrNotAuthenticated is returned when the downloads page renders without
// the account-area wrapper, i.e. the session is not logged in.
var ErrNotAuthenticated = errors.New("scraper: account page not rendered, session is not logged in")

// Catalog scrapes the purchased-downloads table.
type Catalog struct {
	cfg  *config.Config
	sess *session.Session

	// transport overrides the session transport; tests inject a mock here.
	transport http.RoundTripper
}

// New builds a catalog scraper sharing the session's cookie jar.
func New(cfg *config.Config, sess *session.Session) *Catalog {
	return &Catalog{cfg: cfg, sess: sess, transport: sess.Transport()}
}

// Episodes fetches the downloads page and returns entries in document order.
// Rows missing a title, file cell, or link target are skipped. A rendered
// account page without a downloads table (or with only its header row) is an
// empty catalog, not an error; a page without the account wrapper is
// ErrNotAuthenticated.
func (c *Catalog) Episodes(ctx context.Context) ([]models.Episode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := colly.NewCollector(colly.UserAgent(c.cfg.UserAgent))
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.SetCookieJar(c.sess.Jar())
	if c.transport != nil {
		collector.WithTransport(c.transport)
	}

	var (
		episodes   []models.Episode
		hasAccount bool
		skipped    int
		fetchErr   error
	)

	collector.OnHTML(accountMarkerSelector, func(e *colly.HTMLElement) {
		hasAccount = true
	})

	collector.OnHTML(downloadsRowSelector, func(e *colly.HTMLElement) {
		if e.DOM.Find("th").Length() > 0 {
			// header row
			return
		}

		title := parser.NormalizeTitle(e.ChildText(titleCellSelector))
		href := e.ChildAttr(fileLinkSelector, "href")
		if title == "" || href == "" {
			skipped++
			return
		}

		episode := models.Episode{
			Title:     title,
			URL:       e.Request.AbsoluteURL(href),
			ScrapedAt: time.Now(),
		}
		if err := parser.ValidateEpisode(&episode); err != nil {
			skipped++
			slog.Debug("dropping malformed row", slog.Any("error", err))
			return
		}

		slog.Info("found episode", slog.String("title", episode.Title))
		episodes = append(episodes, episode)
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	slog.Info("fetching download links", slog.String("url", c.cfg.DownloadsURL()))
	if err := collector.Visit(c.cfg.DownloadsURL()); err != nil {
		return nil, fmt.Errorf("visit downloads page: %w", err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("fetch downloads page: %w", fetchErr)
	}
	if !hasAccount {
		return nil, ErrNotAuthenticated
	}
	if skipped > 0 {
		slog.Debug("skipped malformed catalog rows", slog.Int("count", skipped))
	}

	slog.Info("catalog scraped", slog.Int("episodes", len(episodes)))
	return episodes, nil
}
