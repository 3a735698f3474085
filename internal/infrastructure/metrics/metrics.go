package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "jan"
	subsystem = "chat_api"
)

// Chat-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "mode"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint", "mode"},
	)

	// Relayed streams by terminal state
	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "streams_total",
			Help:      "Total number of relayed event streams by terminal state",
		},
		[]string{"state"},
	)

	StreamFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_frames_total",
			Help:      "Total number of frames forwarded to clients",
		},
	)

	StreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_bytes_total",
			Help:      "Total number of bytes forwarded to clients",
		},
	)

	StreamParseWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_parse_warnings_total",
			Help:      "Frames forwarded without a parseable event payload",
		},
	)

	StreamTrailingBuffersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_trailing_buffers_total",
			Help:      "Streams that ended with an incomplete trailing frame",
		},
	)

	// Upstream workflow failures
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upstream_errors_total",
			Help:      "Failed calls to the workflow service",
		},
		[]string{"mode", "status"},
	)

	// Conversation bootstrap outcomes
	ConversationBootstrapsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "conversation_bootstraps_total",
			Help:      "Conversation record creation attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint, status, mode string, duration float64) {
	if mode == "" {
		mode = "none"
	}
	RequestsTotal.WithLabelValues(method, endpoint, status, mode).Inc()
	RequestDuration.WithLabelValues(method, endpoint, mode).Observe(duration)
}

// RecordStream records the summary of one relayed stream
func RecordStream(state string, frames int, bytes int64, parseWarnings int, trailing bool) {
	StreamsTotal.WithLabelValues(state).Inc()
	StreamFramesTotal.Add(float64(frames))
	StreamBytesTotal.Add(float64(bytes))
	StreamParseWarningsTotal.Add(float64(parseWarnings))
	if trailing {
		StreamTrailingBuffersTotal.Inc()
	}
}

// RecordUpstreamError records a failed workflow call
func RecordUpstreamError(mode, status string) {
	UpstreamErrorsTotal.WithLabelValues(mode, status).Inc()
}

// RecordBootstrap records a conversation bootstrap outcome
func RecordBootstrap(outcome string) {
	ConversationBootstrapsTotal.WithLabelValues(outcome).Inc()
}
