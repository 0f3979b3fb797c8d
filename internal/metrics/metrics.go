package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Gateway HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Backend client metrics
	backendRequestsTotal   *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec

	// Dashboard metrics
	dashboardLoads   *prometheus.CounterVec
	sectionLoads     *prometheus.CounterVec
	chatMessages     *prometheus.CounterVec
	transcriptLength prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Backend and dashboard metrics
	r.backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_backend_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"operation", "status"},
	)
	r.backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agribot_backend_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	r.dashboardLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_dashboard_loads_total",
			Help: "Total number of dashboard load and refresh operations",
		},
		[]string{"operation", "status"},
	)
	r.sectionLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_section_loads_total",
			Help: "Total number of lazy section loads",
		},
		[]string{"section", "status"},
	)
	r.chatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_chat_messages_total",
			Help: "Total number of chat transcript messages appended",
		},
		[]string{"role"},
	)
	r.transcriptLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agribot_chat_transcript_length",
			Help: "Current number of messages in the chat transcript",
		},
	)

	reg.MustRegister(r.backendRequestsTotal)
	reg.MustRegister(r.backendRequestDuration)
	reg.MustRegister(r.dashboardLoads)
	reg.MustRegister(r.sectionLoads)
	reg.MustRegister(r.chatMessages)
	reg.MustRegister(r.transcriptLength)

	return r
}

// RecordRequest records metrics for a gateway HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBackendRequest records one backend API call.
func (r *Registry) RecordBackendRequest(operation, status string, duration float64) {
	r.backendRequestsTotal.WithLabelValues(operation, status).Inc()
	r.backendRequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordDashboardLoad records an initial load or refresh completion.
func (r *Registry) RecordDashboardLoad(operation, status string) {
	r.dashboardLoads.WithLabelValues(operation, status).Inc()
}

// RecordSectionLoad records a yield or market section load.
func (r *Registry) RecordSectionLoad(section, status string) {
	r.sectionLoads.WithLabelValues(section, status).Inc()
}

// RecordChatMessage records one transcript append.
func (r *Registry) RecordChatMessage(role string) {
	r.chatMessages.WithLabelValues(role).Inc()
}

// SetTranscriptLength sets the current transcript length.
func (r *Registry) SetTranscriptLength(n int) {
	r.transcriptLength.Set(float64(n))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
