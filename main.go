package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-inspector/internal/actions"
	"media-inspector/internal/container"
	"media-inspector/internal/database"
	"media-inspector/internal/extract"
	"media-inspector/internal/ffprobe"
	"media-inspector/internal/handlers"
	"media-inspector/internal/logging"
	"media-inspector/internal/media"
	"media-inspector/internal/memory"
	"media-inspector/internal/metadata"
	"media-inspector/internal/metrics"
	"media-inspector/internal/middleware"
	"media-inspector/internal/settings"
	"media-inspector/internal/startup"

	"github.com/gorilla/mux"
)

// helperStats feeds the periodic metrics collector.
type helperStats struct {
	runner    *actions.Runner
	startTime time.Time
}

func (s helperStats) GetStats() metrics.Stats {
	return metrics.Stats{
		RunningProcesses: s.runner.Running(),
		VipsAvailable:    media.IsVipsAvailable(),
		StartTime:        s.startTime,
	}
}

func main() {
	startTime := time.Now()
	ctx := context.Background()

	// Before significant allocations
	mem := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Settings store (optional)
	var db *database.Database
	var store handlers.SettingsStore
	if config.SettingsStoreEnabled {
		dbStart := time.Now()
		db, err = database.New(ctx, config.DatabasePath)
		if err != nil {
			logging.Error("Settings store unavailable, continuing without it: %v", err)
			db = nil
		} else {
			store = db
			startup.LogDatabaseInit(time.Since(dbStart))
			if err := db.SetMetadata(ctx, "last_start", startTime.UTC().Format(time.RFC3339)); err != nil {
				logging.Warn("failed to record start time: %v", err)
			}
		}
	}

	current, source := loadSettings(ctx, config.SettingsFile, db)
	startup.LogSettingsLoaded(source, current.Version)
	holder := settings.NewHolder(current)

	var watcher *settings.Watcher
	if config.SettingsFile != "" {
		watcher, err = settings.Watch(config.SettingsFile)
		if err != nil {
			logging.Warn("Settings file changes will not be picked up: %v", err)
		} else {
			go holder.Follow(watcher.Updates(), func(s settings.Settings) {
				if db == nil {
					return
				}
				if err := db.SaveSettings(context.Background(), s, "file"); err != nil {
					logging.Warn("failed to store reloaded settings: %v", err)
				}
			})
		}
	}

	// Decoders and container engines
	if err := media.InitVips(mem.VipsCache); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	startup.LogDecoderInit(media.IsVipsAvailable(), current.Engines)

	adapters := map[string]container.Adapter{
		container.EngineMP4: &container.AssetAdapter{Open: container.OpenMP4},
	}
	if config.FFprobeAvailable {
		adapters[container.EngineFFmpeg] = &container.DemuxAdapter{Demuxer: ffprobe.New("")}
	}
	extractor := extract.New(media.DefaultChain(), adapters, holder)

	runner := actions.New(actions.Config{ExecTimeout: config.ExecTimeout, Opener: config.Opener})

	// Metrics
	tags := make([]string, 0, len(metadata.Tags))
	for _, t := range metadata.Tags {
		tags = append(tags, string(t))
	}
	metrics.InitializeMetrics(tags)
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	collector := metrics.NewCollector(helperStats{runner: runner, startTime: startTime}, 15*time.Second)
	collector.Start()

	h := handlers.New(extractor, runner, store, holder, config)
	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.LogQueries = config.LogQueries
	loggedHandler := middleware.Logger(loggingConfig)(router)
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	srv := &http.Server{
		Addr:         config.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, runner, watcher, collector, db)

	startup.LogServerStarted(startup.ServerConfig{
		ListenAddr:      config.ListenAddr,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

// loadSettings picks the settings file over the stored revision over the
// defaults, and makes sure both the file and the store hold the result.
func loadSettings(ctx context.Context, path string, db *database.Database) (settings.Settings, string) {
	if path != "" {
		s, err := settings.LoadFromFile(path)
		switch {
		case err == nil:
			if db != nil {
				if err := db.SaveSettings(ctx, s, "file"); err != nil {
					logging.Warn("failed to store settings from %s: %v", path, err)
				}
			}
			return s, "file"
		case !errors.Is(err, os.ErrNotExist):
			logging.Warn("Ignoring settings file %s: %v", path, err)
		}
	}

	s, source := settings.Default(), "defaults"
	if db != nil {
		stored, found, err := db.LoadSettings(ctx)
		if err != nil {
			logging.Warn("failed to load stored settings: %v", err)
		} else if found {
			s, source = stored, "store"
		}
	}

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := settings.SaveToFile(path, s); err != nil {
				logging.Warn("failed to write settings file %s: %v", path, err)
			}
		}
	}
	return s, source
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	if config.MetricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Extraction
	api.HandleFunc("/info/{tag}", h.GetInfo).Methods("GET")
	api.HandleFunc("/icon", h.GetIcon).Methods("GET")

	// Actions
	api.HandleFunc("/open", h.Open).Methods("POST")
	api.HandleFunc("/open-with", h.OpenWith).Methods("POST")
	api.HandleFunc("/launch", h.Launch).Methods("POST")
	api.HandleFunc("/exec", h.Exec).Methods("POST")

	// Settings
	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.PutSettings).Methods("PUT")
	api.HandleFunc("/settings/history", h.GetSettingsHistory).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, runner *actions.Runner, watcher *settings.Watcher, collector *metrics.Collector, db *database.Database) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping running processes")
	runner.Cleanup()
	startup.LogShutdownStepComplete("Processes stopped")

	if watcher != nil {
		if err := watcher.Close(); err != nil {
			logging.Warn("failed to close settings watcher: %v", err)
		}
	}
	collector.Stop()

	if db != nil {
		startup.LogShutdownStep("Closing settings store")
		if err := db.Close(); err != nil {
			logging.Warn("failed to close settings store: %v", err)
		} else {
			startup.LogShutdownStepComplete("Settings store closed")
		}
	}

	media.ShutdownVips()
	startup.LogShutdownComplete()
}
