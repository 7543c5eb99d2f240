package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	httpErrorsTotal         *prometheus.CounterVec
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamLatencySeconds  *prometheus.HistogramVec
	regionLoadsTotal        *prometheus.CounterVec
	chatMessagesTotal       *prometheus.CounterVec
	chatSubscribersActive   prometheus.Gauge
	notificationsPublished  *prometheus.CounterVec
	sseClientsActive        prometheus.Gauge
	activeViews             *prometheus.GaugeVec
	assistantFallbacksTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the web service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "friendzone_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "friendzone_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "friendzone_http_errors_total",
			Help: "Total number of error responses.",
		}, []string{"method", "route", "status"})

		upstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "friendzone_upstream_requests_total",
			Help: "FriendZone API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"})

		upstreamLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "friendzone_upstream_latency_seconds",
			Help:    "Latency distribution for FriendZone API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"})

		regionLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "friendzone_region_loads_total",
			Help: "Community list region loads by region and resulting state.",
		}, []string{"region", "state"})

		chatMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "friendzone_chat_messages_total",
			Help: "Chat messages appended to transcripts by origin.",
		}, []string{"origin"})

		chatSubscribersActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "friendzone_chat_subscribers_active",
			Help: "Open chat websocket subscribers.",
		})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "friendzone_notifications_published_total",
			Help: "Notices published by kind and delivery path.",
		}, []string{"kind", "delivery"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "friendzone_sse_clients_active",
			Help: "Open notification streams.",
		})

		activeViews = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "friendzone_views_active",
			Help: "Open controller views by kind.",
		}, []string{"kind"})

		assistantFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "friendzone_assistant_fallbacks_total",
			Help: "Assistant calls answered with fallback content.",
		}, []string{"operation"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			upstreamRequestsTotal, upstreamLatencySeconds,
			regionLoadsTotal, chatMessagesTotal, chatSubscribersActive,
			notificationsPublished, sseClientsActive, activeViews, assistantFallbacksTotal,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// UpstreamRequests exposes the counter for FriendZone API calls.
func UpstreamRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return upstreamRequestsTotal
}

// UpstreamLatency exposes the latency histogram for FriendZone API calls.
func UpstreamLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return upstreamLatencySeconds
}

// RegionLoads exposes the counter for list region loads.
func RegionLoads() *prometheus.CounterVec {
	RegisterMetrics()
	return regionLoadsTotal
}

// ChatMessages exposes the counter for appended chat messages.
func ChatMessages() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesTotal
}

// ChatSubscribersActive exposes the gauge of open chat websockets.
func ChatSubscribersActive() prometheus.Gauge {
	RegisterMetrics()
	return chatSubscribersActive
}

// NotificationsPublishedTotal exposes the counter for published notices.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// SSEClientsActive exposes the gauge of open notification streams.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// ActiveViews exposes the gauge of open controller views.
func ActiveViews() *prometheus.GaugeVec {
	RegisterMetrics()
	return activeViews
}

// AssistantFallbacks exposes the counter for assistant fallbacks.
func AssistantFallbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return assistantFallbacksTotal
}
