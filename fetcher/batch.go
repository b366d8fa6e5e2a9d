// Package fetcher dispatches the catalog to a bounded pool of download
// workers and collects a typed result per item.
package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-fetch-episodes/config"
	"github.com/aluiziolira/go-fetch-episodes/models"
)

// ErrBatchClosed is returned when Submit is called after shutdown.
var ErrBatchClosed = errors.New("fetcher: batch closed")

// ItemDownloader fetches a single catalog entry. Implemented by the
// downloader package; stubbed in tests.
type ItemDownloader interface {
	Download(ctx context.Context, episode models.Episode) models.ItemResult
}

// Batch coordinates the task queue, the worker pool, and the join point
// where per-item results are gathered.
type Batch struct {
	ctx     context.Context
	dl      ItemDownloader
	Metrics *Metrics

	taskCh chan models.Episode
	wg     sync.WaitGroup

	mu      sync.Mutex // guards results/closed
	results []models.ItemResult
	closed  bool

	started   time.Time
	closeOnce sync.Once
}

// NewBatch builds a batch over a bounded queue sized from cfg.
func NewBatch(ctx context.Context, dl ItemDownloader, cfg *config.Config) *Batch {
	if ctx == nil {
		ctx = context.Background()
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 64
	}
	return &Batch{
		ctx:     ctx,
		dl:      dl,
		Metrics: NewMetrics(),
		taskCh:  make(chan models.Episode, queue),
		started: time.Now(),
	}
}

// Start launches the worker goroutines.
func (b *Batch) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
}

// Submit enqueues one episode; dispatch order follows submission order.
func (b *Batch) Submit(episode models.Episode) (err error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBatchClosed
	}
	b.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = ErrBatchClosed
		}
	}()

	select {
	case <-b.ctx.Done():
		return ErrBatchClosed
	case b.taskCh <- episode:
		return nil
	}
}

// Close waits for in-flight work and returns the aggregated report.
func (b *Batch) Close() *models.BatchReport {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.closeOnce.Do(func() {
		close(b.taskCh)
	})
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	results := make([]models.ItemResult, len(b.results))
	copy(results, b.results)
	return &models.BatchReport{
		Results:   results,
		StartTime: b.started,
		EndTime:   time.Now(),
	}
}

func (b *Batch) worker() {
	defer b.wg.Done()

	for episode := range b.taskCh {
		if b.ctx.Err() != nil {
			// Dequeued after cancellation: abandoned, never started.
			b.record(models.ItemResult{
				Episode: episode,
				Status:  models.StatusFailed,
				Reason:  "canceled",
			})
			continue
		}

		slog.Info("starting download", slog.String("title", episode.Title))
		b.record(b.dl.Download(b.ctx, episode))
	}
}

func (b *Batch) record(result models.ItemResult) {
	b.Metrics.ObserveResult(result)

	b.mu.Lock()
	b.results = append(b.results, result)
	b.mu.Unlock()
}

// Run dispatches every episode through a fresh batch and blocks until the
// report is complete. Nothing propagates past this boundary; per-item
// failures live only in the report.
func Run(ctx context.Context, dl ItemDownloader, cfg *config.Config, episodes []models.Episode) *models.BatchReport {
	b := NewBatch(ctx, dl, cfg)
	b.Start(cfg.Concurrency)
	for _, episode := range episodes {
		if err := b.Submit(episode); err != nil {
			slog.Warn("batch closed early, remaining items dropped")
			break
		}
	}
	return b.Close()
}
