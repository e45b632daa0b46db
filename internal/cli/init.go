// Package cli provides the initialization steps shared by cmd/orcamento
// and cmd/orcamento-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"orcamento/internal/backend"
	"orcamento/internal/config"
	applog "orcamento/internal/log"
	"orcamento/internal/persistence"
)

// SetupLogger builds the text logger at the given LOG_LEVEL and makes it
// the slog default.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
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
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend creates the slot backend selected by cfg.
// Exits the process on failure.
func OpenBackend(ctx context.Context, cfg *config.Config) (*backend.BackendResult, backend.Factory, backend.Config) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		slog.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(slog.Default())
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		slog.Error("Failed to initialize backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	return result, factory, backendCfg
}

// NewAdapter returns the persistence adapter for the opened backend.
func NewAdapter(cfg *config.Config, result *backend.BackendResult) *persistence.Adapter {
	return persistence.NewAdapter(result.Slot, persistence.WithStrictImport(cfg.ImportStrict))
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
