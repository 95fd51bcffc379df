package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	chatConnectionsTotal prometheus.Counter
	chatMessagesSent     *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	sseClientsActive     prometheus.Gauge

	uploadRequestsTotal *prometheus.CounterVec
	uploadRejectedTotal *prometheus.CounterVec
	uploadLatency       prometheus.Histogram

	socialGraphOps *prometheus.CounterVec
	softDeletes    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bring_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bring_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bring_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		chatConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bring_chat_connections_total",
			Help: "Websocket chat connections accepted.",
		})

		chatMessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bring_chat_messages_sent_total",
			Help: "Direct messages delivered, by kind.",
		}, []string{"kind"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bring_notifications_published_total",
			Help: "Notifications published, by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bring_sse_clients_active",
			Help: "Currently connected notification stream clients.",
		})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bring_upload_requests_total",
			Help: "Stored uploads, by kind.",
		}, []string{"kind"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bring_upload_rejected_total",
			Help: "Rejected uploads, by reason.",
		}, []string{"reason"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bring_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		socialGraphOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bring_social_graph_operations_total",
			Help: "Follow and unfollow operations, by outcome.",
		}, []string{"operation", "outcome"})

		softDeletes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bring_soft_deletes_total",
			Help: "Dream soft deletes, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			chatConnectionsTotal, chatMessagesSent, notificationsTotal, sseClientsActive,
			uploadRequestsTotal, uploadRejectedTotal, uploadLatency,
			socialGraphOps, softDeletes,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ChatConnectionsTotal counts accepted websocket connections.
func ChatConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return chatConnectionsTotal
}

func ChatMessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesSent
}

func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// SocialGraphOperations counts follow/unfollow calls labelled by outcome
// (created, noop, rejected, error).
func SocialGraphOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return socialGraphOps
}

func SoftDeletes() *prometheus.CounterVec {
	RegisterMetrics()
	return softDeletes
}
