package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Business metrics
	OpenNodesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "open_nodes_total",
			Help: "Current number of forming/qualified ride nodes",
		},
		[]string{"service"},
	)

	NodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodes_total",
			Help: "Total number of ride nodes by terminal outcome",
		},
		[]string{"service", "status"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Total number of settled nodes",
		},
		[]string{"service", "status"},
	)

	LedgerVolumePesewas = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_volume_pesewas_total",
			Help: "Absolute ledger movement in pesewas by transaction type",
		},
		[]string{"service", "type"},
	)

	ContentionRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contention_failures_total",
			Help: "Operations that exhausted serialization retries",
		},
		[]string{"service", "operation"},
	)

	WebSocketConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)

	RabbitMQMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_consumed_total",
			Help: "Total number of messages consumed from RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, status).Observe(duration.Seconds())
}

// RecordLedgerMovement records the absolute amount moved by a transaction
func RecordLedgerMovement(service, txType string, pesewas int64) {
	if pesewas < 0 {
		pesewas = -pesewas
	}
	LedgerVolumePesewas.WithLabelValues(service, txType).Add(float64(pesewas))
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesPublished.WithLabelValues(service, queue, status).Inc()
}

// RecordRabbitMQConsume records RabbitMQ consume metrics
func RecordRabbitMQConsume(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesConsumed.WithLabelValues(service, queue, status).Inc()
}
