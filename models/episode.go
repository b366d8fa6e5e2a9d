// Package models defines data structures shared by the fetcher.
package models

import "time"

// Episode is one downloadable item discovered on the account downloads page.
type Episode struct {
	Title     string    `csv:"title" json:"title"`
	URL       string    `csv:"url" json:"url"`
	ScrapedAt time.Time `csv:"scraped_at" json:"scraped_at"`
}

// ItemStatus classifies the outcome of a single download attempt.
type ItemStatus string

const (
	StatusCompleted ItemStatus = "completed"
	StatusSkipped   ItemStatus = "skipped"
	StatusFailed    ItemStatus = "failed"
)

// ItemResult records what happened to one catalog entry.
type ItemResult struct {
	Episode  Episode       `json:"episode"`
	Status   ItemStatus    `json:"status"`
	Filename string        `json:"filename,omitempty"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
	// Reason carries the failure category; empty unless Status is StatusFailed.
	Reason string `json:"reason,omitempty"`
}

// BatchReport aggregates the per-item results of one batch invocation.
type BatchReport struct {
	Results   []ItemResult
	StartTime time.Time
	EndTime   time.Time
}

// Count returns the number of results with the given status.
func (r *BatchReport) Count(status ItemStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Completed returns the number of items downloaded during this batch.
func (r *BatchReport) Completed() int { return r.Count(StatusCompleted) }

// Skipped returns the number of items already present on disk.
func (r *BatchReport) Skipped() int { return r.Count(StatusSkipped) }

// Failed returns the number of items abandoned with an error.
func (r *BatchReport) Failed() int { return r.Count(StatusFailed) }

// TotalBytes sums the bytes written across all completed items.
func (r *BatchReport) TotalBytes() int64 {
	var total int64
	for _, res := range r.Results {
		total += res.Bytes
	}
	return total
}

// FailureReasons breaks down failed items by category label.
func (r *BatchReport) FailureReasons() map[string]int {
	out := make(map[string]int)
	for _, res := range r.Results {
		if res.Status == StatusFailed && res.Reason != "" {
			out[res.Reason]++
		}
	}
	return out
}

// Duration is the wall-clock time of the whole batch.
func (r *BatchReport) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
