package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quayside/steelinspect/internal"
	"github.com/quayside/steelinspect/internal/backup"
	"github.com/quayside/steelinspect/internal/jobs"
	"github.com/quayside/steelinspect/internal/keyring"
	"github.com/quayside/steelinspect/internal/repository"
	"github.com/quayside/steelinspect/internal/service"
	"github.com/quayside/steelinspect/internal/storage"
	"github.com/quayside/steelinspect/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Open the keyring for at-rest keys
	keys, err := keyring.Open(cfg.KeyringPath)
	if err != nil {
		return fmt.Errorf("keyring initialization failed: %w", err)
	}

	// Initialize database connection
	db, err := repository.Open(cfg.DatabasePath, keys.DatabasePassphrase())
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready", "path", cfg.DatabasePath)

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize repository
	queries := repository.New(db)

	// Initialize the services the job handlers depend on. The rest of the
	// use-case layer is consumed as a library by the front end.
	photoService := service.NewPhotoService(db, queries, store, logger)

	// Initialize backup manager
	backupManager := backup.NewManager(
		db, cfg.DatabasePath, store.BasePath(), cfg.BackupPath,
		cfg.BackupKeep, keys.BackupSigningKey(), logger,
	)

	// Initialize background worker
	workerConfig := worker.DefaultConfig()
	workerConfig.Concurrency = cfg.WorkerConcurrency
	workerConfig.PollInterval = cfg.WorkerPollInterval
	workerConfig.JobTimeout = cfg.WorkerJobTimeout

	jobWorker, err := worker.New(db, queries, workerConfig, logger)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	jobWorker.Register(jobs.NewGenerateReportHandler(queries, store, photoService, logger))
	jobWorker.Register(jobs.NewExportCSVHandler(queries, cfg.ExportPath, logger))
	jobWorker.Register(jobs.NewExportXLSXHandler(queries, cfg.ExportPath, logger))
	jobWorker.Register(jobs.NewCreateBackupHandler(backupManager, logger))

	if cfg.WorkerEnabled {
		jobWorker.Start(ctx)
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics, behind basic auth when credentials are configured
	mux.Handle("GET /metrics", metricsHandler(cfg.MetricsUsername, cfg.MetricsPassword))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if cfg.WorkerEnabled {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// metricsHandler wraps the prometheus handler with optional basic auth.
func metricsHandler(username, password string) http.Handler {
	handler := promhttp.Handler()
	if username == "" && password == "" {
		return handler
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
