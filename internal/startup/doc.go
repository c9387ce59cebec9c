// Package startup handles helper initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// The helper loads its configuration from environment variables via
// [LoadConfig]; the client reads the same variables through [FromEnv]
// without the startup logging. The following variables are supported:
//
//   - LISTEN_ADDR: Address the helper serves on (default: 127.0.0.1:7788)
//   - HELPER_ADDR: Address the client dials (default: 127.0.0.1:7788)
//   - SETTINGS_FILE: YAML settings file, watched for changes (default: user config dir)
//   - DATABASE_PATH: SQLite settings store (default: user config dir)
//   - INFO_TIMEOUT: Bound on one metadata request as Go duration (default: 2s)
//   - EXEC_TIMEOUT: Bound on one exec request as Go duration (default: 2s)
//   - METRICS_ENABLED: Serve /metrics (default: true)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//   - LOG_QUERIES: Log request query strings, which carry file paths (default: true)
//   - OPENER: Program used by the open action (default: platform opener)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogDatabaseInit]: Settings store initialization timing
//   - [LogDecoderInit]: libvips availability and engine priority
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
