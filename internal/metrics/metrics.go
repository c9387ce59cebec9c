package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_inspector_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_inspector_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Extraction metrics
var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_extractions_total",
			Help: "Total number of metadata extractions by type tag and outcome",
		},
		[]string{"tag", "status"}, // status: success, no_info, error
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_inspector_extraction_duration_seconds",
			Help:    "Metadata extraction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"tag"},
	)

	DecoderAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_decoder_attempts_total",
			Help: "Total number of image decoder attempts by decoder and outcome",
		},
		[]string{"decoder", "status"},
	)

	ContainerProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_container_probes_total",
			Help: "Total number of audio/video container probes by engine and outcome",
		},
		[]string{"engine", "status"},
	)

	VipsAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_inspector_vips_available",
			Help: "Whether libvips is initialized (1) or the pure Go decoders are used (0)",
		},
	)
)

// Bridge metrics
var (
	BridgeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_bridge_calls_total",
			Help: "Total number of blocking bridge calls by operation and outcome",
		},
		[]string{"operation", "status"}, // status: completed, timeout
	)

	BridgeWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_inspector_bridge_wait_duration_seconds",
			Help:    "Time spent waiting for an asynchronous reply",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
		[]string{"mode"}, // mode: block, pump
	)

	BridgeLateReplies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_inspector_bridge_late_replies_total",
			Help: "Replies discarded because they arrived after the call completed or timed out",
		},
	)
)

// Action metrics
var (
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_actions_total",
			Help: "Total number of helper actions by action and outcome",
		},
		[]string{"action", "status"},
	)

	ProcessesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_inspector_processes_running",
			Help: "Number of child processes currently started by the helper",
		},
	)
)

// Settings and storage metrics
var (
	SettingsReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_settings_reloads_total",
			Help: "Total number of settings file reloads by outcome",
		},
		[]string{"status"},
	)

	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_inspector_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Filesystem metrics
var (
	FilesystemRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_inspector_filesystem_retries_total",
			Help: "Filesystem retries by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_inspector_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_inspector_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)

	UptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_inspector_uptime_seconds",
			Help: "Seconds since the helper started",
		},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
