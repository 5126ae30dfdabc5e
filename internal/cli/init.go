// Package cli provides the bootstrap shared by cmd/fintrack, cmd/notification-relay and
// cmd/report-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT=json and installs it as
// the slog default.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: component,
		JSON:      os.Getenv("LOG_FORMAT") == "json",
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured backend. SQL backends are migrated before they are returned.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (storage.Store, error) {
	if cfg.DataBackend == "memory" {
		logger.Warn("Using in-memory store: data is lost on restart")
		return memory.New(), nil
	}

	dialect, err := storage.ParseDialect(cfg.DataBackend)
	if err != nil {
		return nil, fmt.Errorf("unknown data backend %q: %w", cfg.DataBackend, err)
	}
	dsn := cfg.DatabaseURL
	if dialect == storage.SQLite {
		dsn = cfg.SQLiteDBPath
	}
	store, err := storage.Open(ctx, dialect, dsn, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// MustOpenStore is OpenStore that exits the process on failure.
func MustOpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) storage.Store {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Store ready", "backend", cfg.DataBackend)
	return store
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After the signal, cleanup
// runs with a context bounded by timeout; done closes once it returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
