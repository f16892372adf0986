package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"dupescan/internal/database"
	"dupescan/internal/duplicates"
	"dupescan/internal/handlers"
	"dupescan/internal/logging"
	"dupescan/internal/metrics"
	"dupescan/internal/middleware"
	"dupescan/internal/scanner"
	"dupescan/internal/startup"
	"dupescan/internal/workers"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := db.CleanExpiredSessions(context.Background()); err != nil {
				logging.Warn("Session cleanup failed: %v", err)
			}
		}
	}()

	// Initialize scanner
	hashWorkers := workers.ForIO(16)
	startup.LogScannerInit(config.ScanInterval, hashWorkers)
	scan := scanner.New(db)
	scan.SetHashWorkers(hashWorkers)
	scan.SetEvents(scanner.Events{
		OnStateChange: func(state scanner.State) {
			logging.Debug("Scan state: %s", state)
		},
		OnFileChanged: func(path string, isNew bool) {
			if isNew {
				logging.Debug("New file: %s", path)
			} else {
				logging.Debug("Changed file: %s", path)
			}
		},
		OnDirectorySkipped: func(path string, hidden bool) {
			logging.Debug("Skipped directory: %s (hidden=%v)", path, hidden)
		},
		OnFileError: func(path string, err error) {
			logging.Warn("File error for %s: %v", path, err)
		},
	})

	// Run an initial scan, then rescan on the configured interval.
	go runScanLoop(scan, config)
	startup.LogScannerStarted()

	dupes := duplicates.New(db)

	// Initialize handlers
	h := handlers.New(db, scan, dupes, config)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply authentication middleware
	authedRouter := h.AuthMiddleware(router)

	// Apply metrics middleware
	metricsHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(authedRouter)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(metricsHandler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Periodic index gauge collection
	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(statsAdapter{db}, config.DatabasePath, 30*time.Second)
		collector.Start()
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, collector)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// statsAdapter exposes the database's cached statistics in the shape
// the metrics collector expects.
type statsAdapter struct {
	db *database.Database
}

func (a statsAdapter) GetStats() metrics.Stats {
	stats := a.db.GetStats()
	return metrics.Stats{
		TotalFiles:     stats.TotalFiles,
		UniqueHashes:   stats.UniqueHashes,
		DuplicateFiles: stats.DuplicateFiles,
		IgnoredGroups:  stats.IgnoredGroups,
	}
}

// runScanLoop performs the initial scan and then rescans on the
// configured interval. An interval tick that lands while a scan is
// running is dropped, not queued.
func runScanLoop(scan *scanner.Scanner, config *startup.Config) {
	cfg := scanner.Config{
		Root:          config.ScanDir,
		IncludeHidden: config.IncludeHidden,
		ExcludedDirs:  config.ExcludedDirs,
	}

	runOnce := func() {
		summary, err := scan.Scan(context.Background(), cfg)
		if err != nil {
			if err == scanner.ErrScanInProgress {
				logging.Debug("Skipping scheduled scan: one already running")
				return
			}
			logging.Error("Scan failed: %v", err)
			return
		}
		logging.Info("Scan of %s complete: %d added, %d updated, %d unchanged, %d removed in %s",
			summary.Root, summary.Added, summary.Updated, summary.Unchanged,
			summary.Removed, summary.DurationText)
	}

	runOnce()

	ticker := time.NewTicker(config.ScanInterval)
	for range ticker.C {
		runOnce()
	}
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods("GET")
	auth.HandleFunc("/setup", h.Setup).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")
	auth.HandleFunc("/password", h.ChangePassword).Methods("POST")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scan", h.StartScan).Methods("POST")
	api.HandleFunc("/scan/status", h.ScanStatus).Methods("GET")
	api.HandleFunc("/duplicates", h.GetDuplicates).Methods("GET")
	api.HandleFunc("/duplicates/ignore", h.IgnoreDuplicate).Methods("POST")
	api.HandleFunc("/duplicates/unignore", h.UnignoreDuplicate).Methods("POST")
	api.HandleFunc("/files/delete", h.DeleteFile).Methods("POST")
	api.HandleFunc("/files/keep-only", h.KeepOnlyFile).Methods("POST")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	// Static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

func handleShutdown(srv *http.Server, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
