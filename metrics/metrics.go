// Package metrics provides Prometheus metrics for TrackPro client operations.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes recorded by RecordRefresh.
const (
	RefreshSuccess   = "success"
	RefreshRejected  = "rejected"
	RefreshNoSession = "no_session"
	RefreshTransport = "transport_error"
)

// Metrics holds all Prometheus metrics for client operations.
// A nil *Metrics and a disabled one are both safe no-ops.
type Metrics struct {
	enabled bool

	// Request metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transportErrors *prometheus.CounterVec

	// Authentication metrics
	refreshTotal      *prometheus.CounterVec
	authFailuresTotal *prometheus.CounterVec

	// Session metrics
	sessionChangesTotal *prometheus.CounterVec
}

// New creates metrics registered with reg.
// If reg is nil, returns a no-op Metrics instance.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{enabled: reg != nil}
	if !m.enabled {
		return m
	}
	f := promauto.With(reg)

	m.requestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "trackpro_client_requests_total",
		Help: "Total API calls by method and status class",
	}, []string{"method", "code"})

	m.requestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackpro_client_request_duration_seconds",
		Help:    "API call duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	m.transportErrors = f.NewCounterVec(prometheus.CounterOpts{
		Name: "trackpro_client_transport_errors_total",
		Help: "API calls that produced no response",
	}, []string{"method"})

	m.refreshTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "trackpro_client_token_refresh_total",
		Help: "Token refresh attempts by outcome",
	}, []string{"result"})

	m.authFailuresTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "trackpro_client_auth_failures_total",
		Help: "Terminal authentication failures by stage",
	}, []string{"stage"})

	m.sessionChangesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "trackpro_client_session_changes_total",
		Help: "Session replacements by event",
	}, []string{"event"})

	return m
}

func (m *Metrics) on() bool { return m != nil && m.enabled }

// RecordRequest records one completed HTTP call.
func (m *Metrics) RecordRequest(method string, status int, durationSeconds float64) {
	if !m.on() {
		return
	}
	m.requestsTotal.WithLabelValues(method, StatusClass(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordTransportError records a call that produced no response.
func (m *Metrics) RecordTransportError(method string) {
	if !m.on() {
		return
	}
	m.transportErrors.WithLabelValues(method).Inc()
}

// RecordRefresh records a token refresh outcome.
func (m *Metrics) RecordRefresh(result string) {
	if !m.on() {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}

// RecordAuthFailure records a terminal authentication failure.
func (m *Metrics) RecordAuthFailure(stage string) {
	if !m.on() {
		return
	}
	m.authFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordSessionChange records a session replacement ("set" or "clear").
func (m *Metrics) RecordSessionChange(event string) {
	if !m.on() {
		return
	}
	m.sessionChangesTotal.WithLabelValues(event).Inc()
}

// StatusClass maps 404 to "4xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}
