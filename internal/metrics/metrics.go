// Package metrics provides Prometheus metrics for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the relay exposes.
type Metrics struct {
	RoomsActive        prometheus.Gauge
	ConnectionsActive  prometheus.Gauge
	MessagesTotal      *prometheus.CounterVec
	HeartbeatSweepSecs prometheus.Histogram
	WebhookDeliveries  *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers every collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "codehive_rooms_active",
			Help: "Number of rooms currently registered.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "codehive_connections_active",
			Help: "Number of currently open relay connections.",
		}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codehive_messages_total",
			Help: "Total envelopes dispatched by type and direction.",
		}, []string{"type", "direction"}),
		HeartbeatSweepSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codehive_heartbeat_sweep_duration_seconds",
			Help:    "Duration of the periodic dead-client sweep across all rooms.",
			Buckets: prometheus.DefBuckets,
		}),
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codehive_webhook_deliveries_total",
			Help: "Webhook POST attempts by event and outcome.",
		}, []string{"event", "outcome"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codehive_errors_total",
			Help: "Total errors by component and type.",
		}, []string{"component", "type"}),
		registry: reg,
	}

	reg.MustRegister(
		m.RoomsActive,
		m.ConnectionsActive,
		m.MessagesTotal,
		m.HeartbeatSweepSecs,
		m.WebhookDeliveries,
		m.ErrorsTotal,
	)

	return m
}

// Handler returns an http.Handler for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordMessage increments the dispatch counter for one envelope.
func (m *Metrics) RecordMessage(msgType, direction string) {
	m.MessagesTotal.WithLabelValues(msgType, direction).Inc()
}

// RecordError increments the error counter for one component.
func (m *Metrics) RecordError(component, errType string) {
	m.ErrorsTotal.WithLabelValues(component, errType).Inc()
}

// RecordWebhookDelivery increments the webhook outcome counter.
func (m *Metrics) RecordWebhookDelivery(event, outcome string) {
	m.WebhookDeliveries.WithLabelValues(event, outcome).Inc()
}

// ObserveHeartbeatSweep records one sweep's wall-clock duration.
func (m *Metrics) ObserveHeartbeatSweep(seconds float64) {
	m.HeartbeatSweepSecs.Observe(seconds)
}

// SetRoomsActive sets the current room-count gauge.
func (m *Metrics) SetRoomsActive(count float64) { m.RoomsActive.Set(count) }

// SetConnectionsActive sets the current connection-count gauge.
func (m *Metrics) SetConnectionsActive(count float64) { m.ConnectionsActive.Set(count) }
