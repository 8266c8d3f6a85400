package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	UpstreamDuration *prometheus.HistogramVec
	TokenRefreshes   *prometheus.CounterVec
	CacheEvents      *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fretebot_requests_total",
				Help: "Total inbound requests by route and status",
			},
			[]string{"route", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fretebot_request_duration_seconds",
				Help:    "Inbound request duration in seconds by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		UpstreamDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fretebot_upstream_duration_seconds",
				Help:    "Carrier call duration in seconds by source and outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "outcome"},
		),
		TokenRefreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fretebot_token_refresh_total",
				Help: "Carrier logins by result",
			},
			[]string{"result"},
		),
		CacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fretebot_cache_events_total",
				Help: "Cache hits and misses by cache name",
			},
			[]string{"cache", "event"},
		),
	}
}

// RecordRequest records an inbound request metric.
func (m *Metrics) RecordRequest(route, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration)
}

// RecordUpstream records a carrier call metric.
func (m *Metrics) RecordUpstream(source, outcome string, duration float64) {
	m.UpstreamDuration.WithLabelValues(source, outcome).Observe(duration)
}

// RecordTokenRefresh records a login attempt result.
func (m *Metrics) RecordTokenRefresh(result string) {
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

// RecordCache records a cache hit or miss.
func (m *Metrics) RecordCache(cache, event string) {
	m.CacheEvents.WithLabelValues(cache, event).Inc()
}
