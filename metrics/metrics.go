package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ActionsTotal counts applied moderation actions by action and result.
	ActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawfectmatch",
		Subsystem: "moderation",
		Name:      "actions_total",
		Help:      "Total number of moderation actions processed, labeled by action and result.",
	}, []string{"action", "result"})

	// BulkItemsTotal counts per-item outcomes of bulk reviews.
	BulkItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawfectmatch",
		Subsystem: "moderation",
		Name:      "bulk_items_total",
		Help:      "Total number of bulk review items processed, labeled by result.",
	}, []string{"result"})

	// QueueDepth is the number of open reports awaiting review.
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pawfectmatch",
		Subsystem: "moderation",
		Name:      "queue_depth",
		Help:      "Number of pending and under-review reports in the review queue.",
	})

	// AuditWriteFailures counts audit entries that could not be persisted.
	AuditWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pawfectmatch",
		Subsystem: "moderation",
		Name:      "audit_write_failures_total",
		Help:      "Total number of audit log writes that failed after the triggering action succeeded.",
	})

	// SignalsTotal counts classifier signals consumed from RabbitMQ by result.
	SignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawfectmatch",
		Subsystem: "moderation",
		Name:      "signals_total",
		Help:      "Total number of classifier signal messages processed, labeled by result.",
	}, []string{"result"})

	// SignalProcessingSeconds is end-to-end time per signal delivery.
	SignalProcessingSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pawfectmatch",
		Subsystem: "moderation",
		Name:      "signal_processing_duration_seconds",
		Help:      "End-to-end time to process a classifier signal delivery.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// RabbitMQConnected is 1 when the subscriber considers itself connected.
	RabbitMQConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pawfectmatch",
		Subsystem: "moderation",
		Name:      "rabbitmq_connected",
		Help:      "Whether the signal subscriber is currently connected to RabbitMQ (best-effort).",
	})

	// WebsocketClients is the number of connected admin-console clients.
	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pawfectmatch",
		Subsystem: "moderation",
		Name:      "websocket_clients",
		Help:      "Number of currently connected websocket clients.",
	})
)

// Register registers moderation metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ActionsTotal,
			BulkItemsTotal,
			QueueDepth,
			AuditWriteFailures,
			SignalsTotal,
			SignalProcessingSeconds,
			RabbitMQConnected,
			WebsocketClients,
		)
	})
}
