package downloader

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aluiziolira/go-fetch-episodes/config"
	"github.com/aluiziolira/go-fetch-episodes/models"
	"github.com/aluiziolira/go-fetch-episodes/session"
	"github.com/jarcoal/httpmock"
)

func newTestDownloader(t *testing.T) (*Downloader, *config.Config, *httpmock.MockTransport) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test"
	cfg.Username = "listener"
	cfg.Password = "hunter2"
	cfg.OutputDir = t.TempDir()

	sess, err := session.New(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	transport := httpmock.NewMockTransport()
	sess.StreamClient().SetTransport(transport)

	d := New(cfg, sess)
	d.progressOut = io.Discard
	return d, cfg, transport
}

func TestDownloadContentDispositionFilename(t *testing.T) {
	d, cfg, transport := newTestDownloader(t)

	body := "pretend mp3 payload"
	transport.RegisterResponder("GET", "http://example.test/?download_file=300",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(200, body)
			resp.Header.Set("Content-Disposition", `attachment; filename="Episode 300.mp3"`)
			resp.ContentLength = int64(len(body))
			resp.Request = req
			return resp, nil
		})

	result := d.Download(context.Background(), models.Episode{
		Title: "Episode 300",
		URL:   "http://example.test/?download_file=300",
	})

	if result.Status != models.StatusCompleted {
		t.Fatalf("status = %q (reason %q), want completed", result.Status, result.Reason)
	}
	if result.Filename != "Episode 300.mp3" {
		t.Fatalf("filename = %q, want Episode 300.mp3", result.Filename)
	}
	if result.Bytes != int64(len(body)) {
		t.Fatalf("bytes = %d, want %d", result.Bytes, len(body))
	}

	written, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Episode 300.mp3"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(written) != body {
		t.Fatalf("file content = %q, want %q", written, body)
	}
}

func TestDownloadQueryParamFallbackAfterRedirect(t *testing.T) {
	d, cfg, transport := newTestDownloader(t)

	finalURL := "http://example.test/downloads/download?download_file=4821&order=wc_order_x"
	transport.RegisterResponder("GET", "http://example.test/?download_file=4821",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(302, "")
			resp.Header.Set("Location", finalURL)
			resp.Request = req
			return resp, nil
		})
	transport.RegisterResponder("GET", finalURL,
		httpmock.NewStringResponder(200, "audio"))

	result := d.Download(context.Background(), models.Episode{
		Title: "Episode 4821",
		URL:   "http://example.test/?download_file=4821",
	})

	if result.Status != models.StatusCompleted {
		t.Fatalf("status = %q (reason %q), want completed", result.Status, result.Reason)
	}
	if result.Filename != "dan_carlin_episode_4821.mp3" {
		t.Fatalf("filename = %q, want dan_carlin_episode_4821.mp3", result.Filename)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "dan_carlin_episode_4821.mp3")); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}

type trackingBody struct {
	reads  atomic.Int32
	closed atomic.Bool
}

func (tb *trackingBody) Read(p []byte) (int, error) {
	tb.reads.Add(1)
	return 0, io.EOF
}

func (tb *trackingBody) Close() error {
	tb.closed.Store(true)
	return nil
}

func TestDownloadSkipsExistingFile(t *testing.T) {
	d, cfg, transport := newTestDownloader(t)

	existing := filepath.Join(cfg.OutputDir, "Episode 300.mp3")
	if err := os.WriteFile(existing, []byte("original"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	body := &trackingBody{}
	transport.RegisterResponder("GET", "http://example.test/?download_file=300",
		func(req *http.Request) (*http.Response, error) {
			resp := &http.Response{
				StatusCode:    200,
				Header:        http.Header{},
				Body:          body,
				ContentLength: 1024,
				Request:       req,
			}
			resp.Header.Set("Content-Disposition", `attachment; filename="Episode 300.mp3"`)
			return resp, nil
		})

	result := d.Download(context.Background(), models.Episode{
		Title: "Episode 300",
		URL:   "http://example.test/?download_file=300",
	})

	if result.Status != models.StatusSkipped {
		t.Fatalf("status = %q, want skipped", result.Status)
	}
	if got := body.reads.Load(); got != 0 {
		t.Fatalf("skipped download read the body %d times", got)
	}
	if !body.closed.Load() {
		t.Fatalf("response body not closed")
	}

	content, err := os.ReadFile(existing)
	if err != nil {
		t.Fatalf("read existing: %v", err)
	}
	if string(content) != "original" {
		t.Fatalf("existing file was overwritten: %q", content)
	}
}

func TestDownloadHTTPErrorCategories(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{status: http.StatusForbidden, want: CategoryForbidden},
		{status: http.StatusNotFound, want: CategoryNotFound},
		{status: http.StatusTooManyRequests, want: CategoryRateLimited},
		{status: http.StatusInternalServerError, want: CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			d, _, transport := newTestDownloader(t)
			transport.RegisterResponder("GET", "http://example.test/?download_file=1",
				httpmock.NewStringResponder(tt.status, ""))

			result := d.Download(context.Background(), models.Episode{
				Title: "Episode 1",
				URL:   "http://example.test/?download_file=1",
			})

			if result.Status != models.StatusFailed {
				t.Fatalf("status = %q, want failed", result.Status)
			}
			if result.Reason != tt.want {
				t.Fatalf("reason = %q, want %q", result.Reason, tt.want)
			}
		})
	}
}

func TestDownloadTransportFailure(t *testing.T) {
	d, _, _ := newTestDownloader(t)

	// no responder registered: the request dies at the transport
	result := d.Download(context.Background(), models.Episode{
		Title: "Episode 1",
		URL:   "http://example.test/?download_file=1",
	})

	if result.Status != models.StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if result.Reason == "" {
		t.Fatalf("failed result must carry a category")
	}
}
