// Package session owns the authenticated HTTP state shared by every
// collaborator. All requests issued after login carry the same cookie jar;
// no component builds its own independent identity.
package session

import (
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/aluiziolira/go-fetch-episodes/config"
	"github.com/go-resty/resty/v2"
)

// Session bundles the cookie jar with the clients built on top of it.
type Session struct {
	client    *resty.Client
	stream    *resty.Client
	jar       *cookiejar.Jar
	transport http.RoundTripper
}

// New builds a session with a fresh cookie jar.
func New(cfg *config.Config) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetCookieJar(jar).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetTransport(transport)

	// The stream client skips the client-level timeout: it covers the whole
	// exchange including the body read, which would abort long media
	// downloads mid-stream.
	stream := resty.New().
		SetCookieJar(jar).
		SetHeader("User-Agent", cfg.UserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetTransport(transport)

	return &Session{
		client:    client,
		stream:    stream,
		jar:       jar,
		transport: transport,
	}, nil
}

// Client is the page-fetching client with a request timeout.
func (s *Session) Client() *resty.Client { return s.client }

// StreamClient is the download client without a whole-request timeout.
func (s *Session) StreamClient() *resty.Client { return s.stream }

// Jar exposes the cookie jar so other HTTP stacks can share this identity.
func (s *Session) Jar() *cookiejar.Jar { return s.jar }

// Transport exposes the shared transport for the same reason.
func (s *Session) Transport() http.RoundTripper { return s.transport }
