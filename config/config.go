package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds fetcher configuration.
type Config struct {
	BaseURL     string
	LoginPath   string
	AccountPath string

	Username string
	Password string

	OutputDir      string
	Concurrency    int
	QueueSize      int
	ChunkSize      int
	Timeout        time.Duration
	UserAgent      string
	ManifestFile   string
	ManifestFormat string // csv, json, or dual
	MetricsAddr    string
	Verbose        bool
}

// DefaultConfig returns defaults for the storefront this tool targets.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://www.dancarlin.com",
		LoginPath:      "/wp-login.php",
		AccountPath:    "/my-account/downloads/",
		OutputDir:      "dan_carlin_episodes",
		Concurrency:    3,
		QueueSize:      64,
		ChunkSize:      8192,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		ManifestFile:   "",
		ManifestFormat: "csv",
		MetricsAddr:    "",
		Verbose:        false,
	}
}

// LoginURL is the absolute login endpoint.
func (c *Config) LoginURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + c.LoginPath
}

// DownloadsURL is the absolute account downloads page.
func (c *Config) DownloadsURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + c.AccountPath
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("login path must start with /")
	}
	if !strings.HasPrefix(c.AccountPath, "/") {
		return fmt.Errorf("account path must start with /")
	}
	if c.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.ManifestFormat != "csv" && c.ManifestFormat != "json" && c.ManifestFormat != "dual" {
		return fmt.Errorf("manifest format must be csv, json, or dual")
	}

	return nil
}
