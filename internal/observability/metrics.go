// Package observability wires Prometheus instrumentation for the feed
// service and the ingestion daemon. The registry is exposed at /metrics via
// promhttp.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms shared by the API
// and ingestor processes. It implements core.MetricsCollector and
// ingest.Metrics.
type Metrics struct {
	// HTTP surface.
	RequestDuration *prometheus.HistogramVec // labels: method, endpoint, status
	RequestCount    *prometheus.CounterVec   // labels: method, endpoint, status

	// Ingestion.
	SiteIngests    *prometheus.CounterVec // labels: outcome={success,failure}
	SlotsIngested  prometheus.Counter
	IngestDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waterman",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, endpoint, and status.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "endpoint", "status"}),
		RequestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waterman",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, endpoint, and status.",
		}, []string{"method", "endpoint", "status"}),
		SiteIngests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waterman",
			Name:      "site_ingests_total",
			Help:      "Per-site ingestion runs by outcome.",
		}, []string{"outcome"}),
		SlotsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterman",
			Name:      "slots_ingested_total",
			Help:      "Total normalized forecast slots written.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waterman",
			Name:      "site_ingest_duration_seconds",
			Help:      "Duration of a single site fetch-normalize-store cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	reg.MustRegister(
		m.RequestDuration,
		m.RequestCount,
		m.SiteIngests,
		m.SlotsIngested,
		m.IngestDuration,
	)
	return m
}

// RecordRequest records one HTTP request. Implements core.MetricsCollector.
func (m *Metrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
	m.RequestCount.WithLabelValues(method, endpoint, status).Inc()
}

// ObserveSiteIngest records the outcome of one per-site ingestion run.
// Implements ingest.Metrics.
func (m *Metrics) ObserveSiteIngest(success bool, slots int, duration time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.SiteIngests.WithLabelValues(outcome).Inc()
	m.SlotsIngested.Add(float64(slots))
	m.IngestDuration.Observe(duration.Seconds())
}
