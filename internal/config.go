package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Data directory layout. The individual paths default to subpaths of
	// DataDir unless set explicitly.
	DataDir      string
	DatabasePath string
	StoragePath  string
	ExportPath   string
	BackupPath   string
	KeyringPath  string

	// Backup retention
	BackupKeep int // snapshots kept by Prune, 0 disables pruning

	// Worker Configuration
	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerJobTimeout   time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		DataDir: getEnv("DATA_DIR", "./data"),

		BackupKeep: getEnvInt("BACKUP_KEEP", 10),

		// Worker defaults
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", 5*time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	cfg.DatabasePath = getEnv("DATABASE_PATH", filepath.Join(cfg.DataDir, "inspections.db"))
	cfg.StoragePath = getEnv("STORAGE_PATH", filepath.Join(cfg.DataDir, "storage"))
	cfg.ExportPath = getEnv("EXPORT_PATH", filepath.Join(cfg.DataDir, "exports"))
	cfg.BackupPath = getEnv("BACKUP_PATH", filepath.Join(cfg.DataDir, "backups"))
	cfg.KeyringPath = getEnv("KEYRING_PATH", filepath.Join(cfg.DataDir, "keyring"))

	if cfg.BackupKeep < 0 {
		return nil, fmt.Errorf("BACKUP_KEEP must be >= 0, got: %d", cfg.BackupKeep)
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must be >= 1, got: %d", cfg.WorkerConcurrency)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
