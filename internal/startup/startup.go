package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-inspector/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// DefaultPort is the port the helper listens on and the client dials.
const DefaultPort = "7788"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	// ListenAddr is where the helper serves. The client dials HelperAddr.
	ListenAddr string
	HelperAddr string

	// SettingsFile is the YAML settings file. Empty disables the file and
	// its watcher.
	SettingsFile string
	DatabasePath string

	InfoTimeout time.Duration
	ExecTimeout time.Duration

	MetricsEnabled  bool
	LogHealthChecks bool
	LogQueries      bool

	// Opener overrides the platform program used by the open action.
	Opener string

	// Feature flags based on what is available at startup
	SettingsStoreEnabled bool
	FFprobeAvailable     bool
}

// Defaults returns the configuration used when no environment variable is
// set. It does not touch the filesystem.
func Defaults() *Config {
	return &Config{
		ListenAddr:      "127.0.0.1:" + DefaultPort,
		HelperAddr:      "127.0.0.1:" + DefaultPort,
		SettingsFile:    defaultSettingsFile(),
		DatabasePath:    defaultDatabasePath(),
		InfoTimeout:     2 * time.Second,
		ExecTimeout:     2 * time.Second,
		MetricsEnabled:  true,
		LogHealthChecks: false,
		LogQueries:      true,
	}
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "media-inspector")
}

func defaultSettingsFile() string {
	return filepath.Join(configDir(), "settings.yaml")
}

func defaultDatabasePath() string {
	return filepath.Join(configDir(), "inspector.db")
}

// FromEnv reads the configuration from environment variables without any
// logging or filesystem checks. The client uses it.
func FromEnv() *Config {
	d := Defaults()
	return &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", d.ListenAddr),
		HelperAddr:      getEnv("HELPER_ADDR", d.HelperAddr),
		SettingsFile:    getEnv("SETTINGS_FILE", d.SettingsFile),
		DatabasePath:    getEnv("DATABASE_PATH", d.DatabasePath),
		InfoTimeout:     getEnvDuration("INFO_TIMEOUT", d.InfoTimeout),
		ExecTimeout:     getEnvDuration("EXEC_TIMEOUT", d.ExecTimeout),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", d.MetricsEnabled),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", d.LogHealthChecks),
		LogQueries:      getEnvBool("LOG_QUERIES", d.LogQueries),
		Opener:          getEnv("OPENER", ""),
	}
}

// LoadConfig loads and validates the helper configuration from environment
// variables, logging each step.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := FromEnv()

	logging.Info("  LISTEN_ADDR:         %s", config.ListenAddr)
	logging.Info("  SETTINGS_FILE:       %s", orNone(config.SettingsFile))
	logging.Info("  DATABASE_PATH:       %s", orNone(config.DatabasePath))
	logging.Info("  INFO_TIMEOUT:        %v", config.InfoTimeout)
	logging.Info("  EXEC_TIMEOUT:        %v", config.ExecTimeout)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_QUERIES:         %v", config.LogQueries)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if config.SettingsFile != "" {
		abs, err := filepath.Abs(config.SettingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve settings file path: %w", err)
		}
		config.SettingsFile = abs
		logging.Info("  Settings file (absolute): %s", abs)
		if err := ensureDirectory(filepath.Dir(abs), "settings"); err != nil {
			return nil, fmt.Errorf("settings directory error: %w", err)
		}
	}

	// The settings store is optional: without it the helper still serves
	// requests and keeps settings in memory.
	if config.DatabasePath != "" {
		abs, err := filepath.Abs(config.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		config.DatabasePath = abs
		logging.Info("  Database path (absolute): %s", abs)
		config.SettingsStoreEnabled = setupOptionalDir(filepath.Dir(abs), "database")
	}

	config.FFprobeAvailable = checkFFprobe() == nil

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Settings store: %s", enabledString(config.SettingsStoreEnabled))
	logging.Info("    FFprobe:        %s", enabledString(config.FFprobeAvailable))
	logging.Info("    Metrics:        %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs settings store initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SETTINGS STORE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogSettingsLoaded logs where the active settings came from
func LogSettingsLoaded(source string, version int) {
	logging.Info("  [OK] Settings loaded from %s (version %d)", source, version)
}

// LogDecoderInit logs decoder initialization
func LogDecoderInit(vipsAvailable bool, engines []string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DECODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if vipsAvailable {
		logging.Info("  [OK] libvips is available")
	} else {
		logging.Warn("  libvips unavailable, using the Go image decoders")
	}
	logging.Info("  Engine priority: %s", strings.Join(engines, ", "))
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	ListenAddr      string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Helper API:    http://%s/api", config.ListenAddr)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://%s/metrics", config.ListenAddr)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the helper")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___         ____                          __
   /  |/  /__  ____/ (_)___ _  /  _/___  _________  ___  _____/ /_
  / /|_/ / _ \/ __  / / __ '/  / // __ \/ ___/ __ \/ _ \/ ___/ __/
 / /  / /  __/ /_/ / / /_/ / _/ // / / (__  ) /_/ /  __/ /__/ /_
/_/  /_/\___/\__,_/_/\__,_/ /___/_/ /_/____/ .___/\___/\___/\__/
                                          /_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

// checkFFprobe reports whether the demux engine can run.
func checkFFprobe() error {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		logging.Warn("  ffprobe not found in PATH, the ffmpeg engine is unavailable")
		return fmt.Errorf("ffprobe not found in PATH")
	}
	logging.Debug("  FFprobe path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		logging.Warn("  FFprobe check failed: %v", err)
		return fmt.Errorf("failed to get ffprobe version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  FFprobe version: %s", strings.TrimSpace(lines[0]))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
