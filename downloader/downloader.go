// Package downloader streams individual catalog entries to disk.
//
// Filename resolution runs an ordered resolver chain (content-disposition,
// final URL basename, download_file query parameter) so the priority order
// stays auditable without network I/O; see filename.go.
package downloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-fetch-episodes/config"
	"github.com/aluiziolira/go-fetch-episodes/models"
	"github.com/aluiziolira/go-fetch-episodes/session"
)

// Downloader fetches one episode at a time over the shared session.
// Safe for concurrent use; workers write distinct files.
type Downloader struct {
	cfg  *config.Config
	sess *session.Session

	// progressOut receives the per-file progress line; os.Stdout outside tests.
	progressOut io.Writer
}

// New builds a downloader bound to the session and output directory.
func New(cfg *config.Config, sess *session.Session) *Downloader {
	return &Downloader{cfg: cfg, sess: sess, progressOut: os.Stdout}
}

// Download fetches one episode and reports its outcome. Errors never
// propagate: every failure is folded into the result so the batch continues.
func (d *Downloader) Download(ctx context.Context, episode models.Episode) (result models.ItemResult) {
	start := time.Now()
	result = models.ItemResult{Episode: episode, Status: models.StatusFailed}
	defer func() {
		result.Duration = time.Since(start)
	}()

	// A full GET rather than a HEAD probe: the redirect chain must resolve
	// to the final URL before any filename decision is made.
	res, err := d.sess.StreamClient().R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(episode.URL)
	if err != nil {
		result.Reason = classify(err, 0)
		slog.Error("download request failed",
			slog.String("title", episode.Title),
			slog.String("category", result.Reason),
			slog.Any("error", err),
		)
		return result
	}
	body := res.RawBody()
	defer body.Close()

	raw := res.RawResponse
	if raw.StatusCode >= http.StatusBadRequest {
		result.Reason = classify(&HTTPStatusError{StatusCode: raw.StatusCode}, raw.StatusCode)
		slog.Error("download rejected",
			slog.String("title", episode.Title),
			slog.Int("status", raw.StatusCode),
			slog.String("category", result.Reason),
		)
		return result
	}

	sourceURL, _ := url.Parse(episode.URL)
	filename := resolveFilename(responseMeta{
		ContentDisposition: raw.Header.Get("Content-Disposition"),
		FinalURL:           raw.Request.URL,
		SourceURL:          sourceURL,
	})
	result.Filename = filename
	target := filepath.Join(d.cfg.OutputDir, filename)

	// Existence is proof of prior completion; the body stays unread.
	if _, err := os.Stat(target); err == nil {
		slog.Info("skipping, already exists", slog.String("file", filename))
		result.Status = models.StatusSkipped
		return result
	}

	file, err := os.Create(target)
	if err != nil {
		result.Reason = CategoryOther
		slog.Error("create output file",
			slog.String("file", filename),
			slog.Any("error", err),
		)
		return result
	}

	slog.Info("downloading", slog.String("file", filename))
	progress := newProgressWriter(filename, raw.ContentLength, d.progressOut)
	buf := make([]byte, d.cfg.ChunkSize)
	written, copyErr := io.CopyBuffer(io.MultiWriter(file, progress), body, buf)
	closeErr := file.Close()

	if copyErr != nil {
		result.Reason = classify(copyErr, 0)
		slog.Error("download interrupted",
			slog.String("file", filename),
			slog.Int64("bytes", written),
			slog.String("category", result.Reason),
			slog.Any("error", copyErr),
		)
		return result
	}
	if closeErr != nil {
		result.Reason = CategoryOther
		slog.Error("close output file", slog.String("file", filename), slog.Any("error", closeErr))
		return result
	}

	progress.finish()
	result.Status = models.StatusCompleted
	result.Bytes = written
	slog.Info("completed",
		slog.String("file", filename),
		slog.Int64("bytes", written),
	)
	return result
}
