// Package metrics defines the Prometheus metrics for the coordinator.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// WebSocket metrics
	wsConnections  prometheus.Gauge
	wsEventsTotal  *prometheus.CounterVec
	wsDroppedTotal *prometheus.CounterVec

	// Call metrics
	callsActive prometheus.Gauge
	callsTotal  *prometheus.CounterVec

	// Message relay metrics
	relayedTotal *prometheus.CounterVec

	// Push notification metrics
	pushTotal  *prometheus.CounterVec
	pushFailed *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request latency in seconds",
				ConstLabels: labels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Number of HTTP requests currently being processed",
				ConstLabels: labels,
			},
		),
		wsConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name:        "ws_connections",
				Help:        "Number of registered websocket connections",
				ConstLabels: labels,
			},
		),
		wsEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ws_events_total",
				Help:        "Total number of websocket events by kind and outcome",
				ConstLabels: labels,
			},
			[]string{"event", "outcome"},
		),
		wsDroppedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "ws_events_dropped_total",
				Help:        "Events dropped because a client send buffer was full",
				ConstLabels: labels,
			},
			[]string{"event"},
		),
		callsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name:        "calls_active",
				Help:        "Number of call sessions currently ringing or active",
				ConstLabels: labels,
			},
		),
		callsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "calls_total",
				Help:        "Total number of call sessions by final outcome",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		relayedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "chat_relayed_total",
				Help:        "Total chat notifications relayed to peers",
				ConstLabels: labels,
			},
			[]string{"event"},
		),
		pushTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "push_notifications_total",
				Help:        "Total push notifications sent",
				ConstLabels: labels,
			},
			[]string{"provider"},
		),
		pushFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "push_notifications_failed_total",
				Help:        "Total push notifications that failed to send",
				ConstLabels: labels,
			},
			[]string{"provider"},
		),
	}
}

// RecordHTTPRequest records an HTTP request with its status and duration
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight request gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight request gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Dec()
}

// ConnectionOpened records a websocket connection being admitted
func (m *Metrics) ConnectionOpened() {
	m.wsConnections.Inc()
}

// ConnectionClosed records a websocket connection being removed
func (m *Metrics) ConnectionClosed() {
	m.wsConnections.Dec()
}

// RecordEvent records the outcome of an inbound event ("forwarded",
// "dropped", "rejected", "unreachable")
func (m *Metrics) RecordEvent(event, outcome string) {
	m.wsEventsTotal.WithLabelValues(event, outcome).Inc()
}

// RecordSendDropped records an outbound event dropped on a full send buffer
func (m *Metrics) RecordSendDropped(event string) {
	m.wsDroppedTotal.WithLabelValues(event).Inc()
}

// CallStarted records a new call session entering the ringing state
func (m *Metrics) CallStarted() {
	m.callsActive.Inc()
}

// CallEnded records a call session reaching its terminal state
func (m *Metrics) CallEnded(outcome string) {
	m.callsActive.Dec()
	m.callsTotal.WithLabelValues(outcome).Inc()
}

// RecordRelayed records a chat notification relayed to a peer
func (m *Metrics) RecordRelayed(event string) {
	m.relayedTotal.WithLabelValues(event).Inc()
}

// RecordPush records a push notification attempt
func (m *Metrics) RecordPush(provider string, failed bool) {
	if failed {
		m.pushFailed.WithLabelValues(provider).Inc()
		return
	}
	m.pushTotal.WithLabelValues(provider).Inc()
}
