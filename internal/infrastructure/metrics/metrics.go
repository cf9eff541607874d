package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all prometheus metrics for creatorpulse.
// uses a custom registry to avoid polluting the global namespace.
type Metrics struct {
	Registry *prometheus.Registry

	// http_request_duration_seconds - histogram for api latency
	HTTPRequestDuration *prometheus.HistogramVec

	// creatorpulse_content_fetched_total - items returned by source fetchers
	ContentFetchedTotal prometheus.Counter

	// creatorpulse_upstream_errors_total - failed calls per external service
	UpstreamErrorsTotal *prometheus.CounterVec

	// creatorpulse_drafts_generated_total - drafts written per platform
	DraftsGeneratedTotal *prometheus.CounterVec

	// creatorpulse_trend_detection_duration_seconds - per-user detection runs
	TrendDetectionDuration *prometheus.HistogramVec

	// creatorpulse_archive_buffer_size - records waiting for the archive worker
	ArchiveBufferSize prometheus.Gauge

	// creatorpulse_webhook_deliveries_total - spike webhook attempts by outcome
	WebhookDeliveriesTotal *prometheus.CounterVec

	// creatorpulse_stream_clients - connected websocket listeners
	StreamClients prometheus.Gauge
}

// New creates and registers all prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	// add standard go runtime and process collectors
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		ContentFetchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "creatorpulse_content_fetched_total",
			Help: "Total number of content items fetched from sources",
		}),

		UpstreamErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creatorpulse_upstream_errors_total",
				Help: "Total number of failed calls to external services",
			},
			[]string{"service"},
		),

		DraftsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creatorpulse_drafts_generated_total",
				Help: "Total number of drafts generated",
			},
			[]string{"platform"},
		),

		TrendDetectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creatorpulse_trend_detection_duration_seconds",
				Help:    "Duration of per-user trend detection runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~100s
			},
			[]string{"outcome"},
		),

		ArchiveBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "creatorpulse_archive_buffer_size",
			Help: "Current number of content records waiting in the archive buffer",
		}),

		WebhookDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creatorpulse_webhook_deliveries_total",
				Help: "Total number of spike webhook delivery attempts",
			},
			[]string{"outcome"},
		),

		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "creatorpulse_stream_clients",
			Help: "Current number of connected trend stream clients",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestDuration,
		m.ContentFetchedTotal,
		m.UpstreamErrorsTotal,
		m.DraftsGeneratedTotal,
		m.TrendDetectionDuration,
		m.ArchiveBufferSize,
		m.WebhookDeliveriesTotal,
		m.StreamClients,
	)

	return m
}

// RecordHTTPRequest records the duration of an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
}

// RecordContentFetched adds fetched items to the counter.
func (m *Metrics) RecordContentFetched(count int) {
	m.ContentFetchedTotal.Add(float64(count))
}

// RecordUpstreamError counts a failed call to an external service.
func (m *Metrics) RecordUpstreamError(service string) {
	m.UpstreamErrorsTotal.WithLabelValues(service).Inc()
}

// RecordDraftsGenerated adds generated drafts for a platform.
func (m *Metrics) RecordDraftsGenerated(platform string, count int) {
	m.DraftsGeneratedTotal.WithLabelValues(platform).Add(float64(count))
}

// RecordTrendDetection records the duration of one detection run.
func (m *Metrics) RecordTrendDetection(durationSeconds float64, outcome string) {
	m.TrendDetectionDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

// SetBufferSize sets the current archive buffer size gauge.
func (m *Metrics) SetBufferSize(size int) {
	m.ArchiveBufferSize.Set(float64(size))
}

// RecordWebhookDelivery counts one delivery attempt.
func (m *Metrics) RecordWebhookDelivery(outcome string) {
	m.WebhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}

// SetStreamClients sets the connected stream clients gauge.
func (m *Metrics) SetStreamClients(n int) {
	m.StreamClients.Set(float64(n))
}
