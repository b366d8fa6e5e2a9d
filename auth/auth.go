// Package auth logs the shared session into the storefront account area.
package auth

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-fetch-episodes/config"
	"github.com/aluiziolira/go-fetch-episodes/session"
)

// accountPathSegment marks the account area in the post-login redirect URL.
// Part of the site's versioned HTML contract, like the selectors in scraper.
const accountPathSegment = "my-account"

// Authenticator submits WordPress login credentials and verifies the redirect.
type Authenticator struct {
	cfg  *config.Config
	sess *session.Session
}

// New builds an authenticator bound to a session.
func New(cfg *config.Config, sess *session.Session) *Authenticator {
	return &Authenticator{cfg: cfg, sess: sess}
}

// Login fetches the login form, replays its hidden fields alongside the
// credentials, and reports success iff the final redirect lands in the
// account area. Rejected credentials yield (false, nil); transport failures
// (false, err). Either way the caller must treat false as not logged in.
func (a *Authenticator) Login(ctx context.Context) (bool, error) {
	slog.Info("logging in", slog.String("url", a.cfg.LoginURL()))

	res, err := a.sess.Client().R().
		SetContext(ctx).
		Get(a.cfg.LoginPath)
	if err != nil {
		return false, fmt.Errorf("fetch login page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return false, fmt.Errorf("parse login page: %w", err)
	}

	form := map[string]string{
		"log":         a.cfg.Username,
		"pwd":         a.cfg.Password,
		"wp-submit":   "Log In",
		"redirect_to": a.cfg.DownloadsURL(),
		"testcookie":  "1",
	}
	// Hidden fields are applied after the fixed ones so the form's own
	// values win on a name collision.
	doc.Find("input[type=hidden]").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok || name == "" {
			return
		}
		form[name] = sel.AttrOr("value", "")
	})

	res, err = a.sess.Client().R().
		SetContext(ctx).
		SetFormData(form).
		Post(a.cfg.LoginPath)
	if err != nil {
		return false, fmt.Errorf("submit login form: %w", err)
	}

	finalURL := res.RawResponse.Request.URL
	if strings.Contains(finalURL.Path, accountPathSegment) {
		slog.Info("login successful")
		return true, nil
	}

	slog.Warn("login failed, check credentials",
		slog.String("final_url", finalURL.String()),
		slog.Int("status", res.StatusCode()),
	)
	return false, nil
}
