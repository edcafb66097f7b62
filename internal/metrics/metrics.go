package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mixpost_api"

// Metrics contains all Prometheus metrics for the API. A nil *Metrics
// records nothing.
type Metrics struct {
	// HTTP.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Posts.
	PostsScheduled *prometheus.CounterVec
	PostsPublished *prometheus.CounterVec

	// Media.
	MediaStored *prometheus.CounterVec

	// Tokens.
	TokensIssued prometheus.Counter
	TokensPruned prometheus.Counter
	AuthFailures *prometheus.CounterVec

	// Build info.
	BuildInfo *prometheus.GaugeVec
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		PostsScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_scheduled_total",
				Help:      "Total number of posts handed to the publish queue",
			},
			[]string{"trigger"},
		),
		PostsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_published_total",
				Help:      "Total number of publish attempts by final status",
			},
			[]string{"status"},
		),

		MediaStored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "media_stored_total",
				Help:      "Total number of media files stored",
			},
			[]string{"source", "disk"},
		),

		TokensIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_issued_total",
				Help:      "Total number of API tokens issued",
			},
		),
		TokensPruned: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_pruned_total",
				Help:      "Total number of expired API tokens deleted",
			},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total number of rejected API requests by reason",
			},
			[]string{"reason"},
		),

		BuildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_info",
				Help:      "Build information",
			},
			[]string{"version"},
		),
	}
}

func (m *Metrics) SetBuildInfo(version string) {
	if m == nil {
		return
	}
	m.BuildInfo.WithLabelValues(version).Set(1)
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordPostScheduled counts a post queued by trigger ("schedule", "publish" or "update").
func (m *Metrics) RecordPostScheduled(trigger string) {
	if m == nil {
		return
	}
	m.PostsScheduled.WithLabelValues(trigger).Inc()
}

func (m *Metrics) RecordPostPublished(status string) {
	if m == nil {
		return
	}
	m.PostsPublished.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordMediaStored(source, disk string) {
	if m == nil {
		return
	}
	m.MediaStored.WithLabelValues(source, disk).Inc()
}

func (m *Metrics) RecordTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

func (m *Metrics) RecordTokensPruned(n int64) {
	if m == nil {
		return
	}
	m.TokensPruned.Add(float64(n))
}

func (m *Metrics) RecordAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}
