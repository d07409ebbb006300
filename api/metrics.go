package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the client.
type Metrics struct {
	Registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
	MirrorFailures     prometheus.Counter
	LoginAttemptsTotal *prometheus.CounterVec
	LockoutsTotal      prometheus.Counter
	SearchesTotal      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartmarket_requests_total",
			Help: "Total HTTP requests issued to backend services.",
		},
		[]string{"service", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartmarket_request_duration_seconds",
			Help:    "HTTP request latency by backend service.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartmarket_errors_total",
			Help: "Total backend call failures by type.",
		},
		[]string{"service", "error_type"},
	)
	mirrorFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smartmarket_mirror_failures_total",
			Help: "Best-effort mirror calls that failed and were discarded.",
		},
	)
	logins := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartmarket_login_attempts_total",
			Help: "Login submissions by outcome.",
		},
		[]string{"outcome"},
	)
	lockouts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smartmarket_lockouts_total",
			Help: "Local login lockouts triggered.",
		},
	)
	searches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartmarket_searches_total",
			Help: "Search runs by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(requests, requestDuration, errorsTotal, mirrorFailures, logins, lockouts, searches)

	return &Metrics{
		Registry:           registry,
		RequestsTotal:      requests,
		RequestDuration:    requestDuration,
		ErrorsTotal:        errorsTotal,
		MirrorFailures:     mirrorFailures,
		LoginAttemptsTotal: logins,
		LockoutsTotal:      lockouts,
		SearchesTotal:      searches,
	}
}

// IncRequest counts a completed request by service and status class.
func (m *Metrics) IncRequest(service, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(service, status).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(service string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(service).Observe(d.Seconds())
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(service, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

// IncMirrorFailure counts a discarded mirror failure.
func (m *Metrics) IncMirrorFailure() {
	if m == nil {
		return
	}
	m.MirrorFailures.Inc()
}

// IncLogin counts a login submission outcome.
func (m *Metrics) IncLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// IncLockout counts a triggered lockout.
func (m *Metrics) IncLockout() {
	if m == nil {
		return
	}
	m.LockoutsTotal.Inc()
}

// IncSearch counts a search run outcome.
func (m *Metrics) IncSearch(outcome string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
}
