package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EventsReceived  *prometheus.CounterVec
	RemindersSent   prometheus.Counter
	RemindersFailed prometheus.Counter
	ReminderLatency prometheus.Histogram
	QueueDepth      prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_received_total",
			Help: "Total number of inbound webhook events by intake outcome.",
		}, []string{"outcome"}),

		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of successfully delivered reminders.",
		}),

		RemindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Total number of failed reminder deliveries (each retried on a later tick).",
		}),

		ReminderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_delivery_seconds",
			Help:    "Latency of one reminder delivery, from send to tracker ack.",
			Buckets: prometheus.DefBuckets,
		}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "issue_queue_depth",
			Help: "Current number of tracked issues awaiting a reminder.",
		}),
	}

	reg.MustRegister(
		m.EventsReceived,
		m.RemindersSent,
		m.RemindersFailed,
		m.ReminderLatency,
		m.QueueDepth,
	)

	return m
}

// WorkerHooks returns the metric callback functions expected by worker.MetricHooks.
// Centralises the prometheus observation calls so the worker stays import-free.
func (m *Metrics) WorkerHooks() (onReminded func(time.Duration), onFailed func()) {
	onReminded = func(latency time.Duration) {
		m.RemindersSent.Inc()
		m.ReminderLatency.Observe(latency.Seconds())
	}
	onFailed = func() {
		m.RemindersFailed.Inc()
	}
	return
}

// IntakeHook returns the per-event callback injected into the webhook handler.
func (m *Metrics) IntakeHook() func(outcome string) {
	return func(outcome string) {
		m.EventsReceived.WithLabelValues(outcome).Inc()
	}
}
