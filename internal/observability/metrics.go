package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// sync job and the read API.
type Metrics struct {
	RecordsProcessed *prometheus.CounterVec // labels: entity={asteroid,approach,threat}
	RecordsSkipped   *prometheus.CounterVec // labels: entity, reason={malformed,orphan,filtered}
	SyncRunning      prometheus.Gauge

	// Feed client metrics.
	FeedRequests    *prometheus.CounterVec   // labels: feed={sbdb,cad,sentry}, outcome={success,error}
	FeedAPIDuration *prometheus.HistogramVec // labels: feed
	SentryCache     *prometheus.CounterVec   // labels: result={hit,miss}

	// Per-entity stage duration for a full fetch-resolve-upsert cycle.
	StageDuration *prometheus.HistogramVec // labels: entity

	EventsPublished prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_sync",
			Name:      "records_processed_total",
			Help:      "Total feed records upserted, by entity type.",
		}, []string{"entity"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_sync",
			Name:      "records_skipped_total",
			Help:      "Total feed records dropped before persistence, by entity type and reason.",
		}, []string{"entity", "reason"}),
		SyncRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_sync",
			Name:      "running",
			Help:      "1 while a reconciliation run is active, 0 otherwise.",
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_sync",
			Name:      "feed_requests_total",
			Help:      "Upstream feed requests by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "neo_sync",
			Name:      "feed_api_duration_seconds",
			Help:      "Upstream feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"feed"}),
		SentryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_sync",
			Name:      "sentry_cache_total",
			Help:      "Sentry per-object cache lookups by result.",
		}, []string{"result"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "neo_sync",
			Name:      "stage_duration_seconds",
			Help:      "Duration of a complete per-entity reconciliation stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"entity"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_sync",
			Name:      "events_published_total",
			Help:      "Total sync summary events written to Kafka.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsProcessed,
		m.RecordsSkipped,
		m.SyncRunning,
		m.FeedRequests,
		m.FeedAPIDuration,
		m.SentryCache,
		m.StageDuration,
		m.EventsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_sync", Name: "records_processed_total"}, []string{"entity"}),
		RecordsSkipped:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_sync", Name: "records_skipped_total"}, []string{"entity", "reason"}),
		SyncRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "neo_sync", Name: "running"}),
		FeedRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_sync", Name: "feed_requests_total"}, []string{"feed", "outcome"}),
		FeedAPIDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "neo_sync", Name: "feed_api_duration_seconds"}, []string{"feed"}),
		SentryCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_sync", Name: "sentry_cache_total"}, []string{"result"}),
		StageDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "neo_sync", Name: "stage_duration_seconds"}, []string{"entity"}),
		EventsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_sync", Name: "events_published_total"}),
	}
}
