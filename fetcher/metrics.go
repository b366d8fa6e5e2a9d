package fetcher

import (
	"github.com/aluiziolira/go-fetch-episodes/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the batch fetcher.
type Metrics struct {
	Registry        *prometheus.Registry
	ItemsTotal      *prometheus.CounterVec
	BytesTotal      prometheus.Counter
	ItemDuration    prometheus.Histogram
	FailuresByCause *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	items := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetcher_items_total",
			Help: "Catalog entries processed, by outcome.",
		},
		[]string{"outcome"},
	)
	bytes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fetcher_bytes_downloaded_total",
			Help: "Total bytes streamed to disk.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fetcher_item_duration_seconds",
			Help:    "Wall-clock duration per catalog entry.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetcher_failures_total",
			Help: "Failed catalog entries, by category.",
		},
		[]string{"category"},
	)

	registry.MustRegister(items, bytes, duration, failures)

	return &Metrics{
		Registry:        registry,
		ItemsTotal:      items,
		BytesTotal:      bytes,
		ItemDuration:    duration,
		FailuresByCause: failures,
	}
}

// ObserveResult records one item outcome.
func (m *Metrics) ObserveResult(result models.ItemResult) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(string(result.Status)).Inc()
	m.ItemDuration.Observe(result.Duration.Seconds())
	if result.Bytes > 0 {
		m.BytesTotal.Add(float64(result.Bytes))
	}
	if result.Status == models.StatusFailed && result.Reason != "" {
		m.FailuresByCause.WithLabelValues(result.Reason).Inc()
	}
}
