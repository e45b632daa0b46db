package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"orcamento/internal/backend"
	"orcamento/internal/cli"
	applog "orcamento/internal/log"
	"orcamento/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentWorker)

	logger.Info("Starting orcamento-worker", applog.FieldOperation, applog.OpStartup)

	ctx, stop := cli.SignalContext()
	defer stop()

	result, factory, backendCfg := cli.OpenBackend(ctx, cfg)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	if backendCfg.Type == backend.MemoryBackend {
		logger.Warn("Memory backend is private to this process, backups will only ever see an empty ledger")
	}

	summaries, err := factory.CreateSummaryWriter(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize summary writer", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.SheetsEnabled() {
		logger.Info("Google Sheets summary mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	}

	backups, err := worker.NewBackupWorker(cli.NewAdapter(cfg, result), summaries, worker.BackupConfig{
		Dir:      cfg.BackupDir,
		Keep:     cfg.BackupKeep,
		Interval: cfg.BackupInterval,
	})
	if err != nil {
		logger.Error("Failed to initialize backup worker", applog.FieldError, err, "dir", cfg.BackupDir)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return backups.Run(gctx)
	})

	if result.AMQP != nil {
		g.Go(func() error {
			return result.AMQP.ConsumeLedgerCommitted(gctx, backups.HandleCommitted)
		})
		logger.Info("Consuming commit events", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP not available, backing up on the interval only", "interval", cfg.BackupInterval)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		_ = result.Close()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
}
