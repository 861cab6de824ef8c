// Package cli holds the start-up and shutdown steps shared by
// cmd/backoffice and cmd/backoffice-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"backoffice/internal/config"
	"backoffice/internal/log"
	"backoffice/internal/storage"
)

// SetupLogger builds the process logger at level and makes it the slog default.
func SetupLogger(level, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. A missing file is
// not an error; a malformed one is.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// LoadAndValidateConfig reads the environment and validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}

// InitSQLite opens the figures database and applies migrations.
func InitSQLite(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite %s: %w", dbPath, err)
	}
	logger.WithComponent(log.ComponentStorage).Info("SQLite repository ready", "path", dbPath)
	return repo, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownStep is one named cleanup run at shutdown.
type ShutdownStep struct {
	Name string
	Fn   func(ctx context.Context) error
}

// GracefulShutdown runs steps in order under a shared timeout. Every step
// runs even when an earlier one fails; the failures are joined.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, steps ...ShutdownStep) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if step.Fn == nil {
			continue
		}
		if err := step.Fn(ctx); err != nil {
			logger.Error("Shutdown step failed", log.FieldOperation, log.OpShutdown, "step", step.Name, log.FieldError, err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
			continue
		}
		logger.Debug("Shutdown step done", "step", step.Name)
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached", "timeout", timeout.String())
	}
	return errors.Join(errs...)
}
