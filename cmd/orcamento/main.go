package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"orcamento/internal/cli"
	apphttp "orcamento/internal/http"
	applog "orcamento/internal/log"
	"orcamento/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext()
	defer stop()

	result, _, backendCfg := cli.OpenBackend(ctx, cfg)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	adapter := cli.NewAdapter(cfg, result)
	ledger, err := services.NewLedgerService(ctx, adapter, logger, result.ServiceOptions()...)
	if err != nil {
		logger.Error("Failed to load ledger", applog.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, logger)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting orcamento server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"backend", backendCfg.Type,
			"amqp", result.AMQP != nil,
			"strict_import", adapter.Strict())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			_ = result.Close()
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", applog.FieldError, err)
	}
	logger.Info("Server stopped gracefully", applog.FieldVersion, ledger.Version())
}
