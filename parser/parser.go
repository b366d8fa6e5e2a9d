// Package parser validates and normalizes scraped catalog fields.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aluiziolira/go-fetch-episodes/models"
)

// ValidateEpisode ensures the scraper captured the required fields.
func ValidateEpisode(e *models.Episode) error {
	if e == nil {
		return fmt.Errorf("episode is nil")
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("episode missing title")
	}
	if strings.TrimSpace(e.URL) == "" {
		return fmt.Errorf("episode missing url for %s", e.Title)
	}
	parsed, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("episode url for %s: %w", e.Title, err)
	}
	if !parsed.IsAbs() {
		return fmt.Errorf("episode url for %s is not absolute", e.Title)
	}
	return nil
}

// NormalizeTitle collapses the whitespace runs HTML cells carry into
// single spaces and trims the ends.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
