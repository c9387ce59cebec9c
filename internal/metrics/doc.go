// Package metrics provides Prometheus instrumentation for the media inspector
// helper.
//
// All metrics are prefixed with "media_inspector_" and registered with the
// default registry through promauto, so importing the package is enough to
// expose them on /metrics.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Extraction Metrics
//
//   - ExtractionsTotal: Counter by type tag and outcome (success/no_info/error)
//   - ExtractionDuration: Histogram of extraction time by type tag
//   - DecoderAttemptsTotal: Counter of image decoder attempts by decoder
//   - ContainerProbesTotal: Counter of audio/video probes by engine
//   - VipsAvailable: Gauge set when libvips backs the generic image probe
//
// ## Bridge Metrics
//
//   - BridgeCallsTotal: Counter of blocking calls by operation and outcome
//   - BridgeWaitDuration: Histogram of wait time by mode (block/pump)
//   - BridgeLateReplies: Counter of replies discarded after completion
//
// ## Action, Settings and Storage Metrics
//
//   - ActionsTotal, ProcessesRunning
//   - SettingsReloadsTotal, DBQueryTotal, DBQueryDuration
//   - FilesystemRetriesTotal, FilesystemRetryDuration
//
// # Collector
//
// Collector samples a StatsProvider on an interval and updates the gauges
// that are not driven by events (running processes, vips availability,
// uptime).
package metrics
