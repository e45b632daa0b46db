package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"orcamento/internal/amqp"
	"orcamento/internal/core"
	"orcamento/internal/persistence"
	"orcamento/internal/sheets"
	"orcamento/internal/slot/file"
)

const snapshotStampLayout = "20060102T150405.000000000"

// BackupConfig holds configuration for the backup worker
type BackupConfig struct {
	// Dir receives the latest export plus timestamped copies.
	Dir string
	// Keep is how many timestamped copies survive pruning (default: 10).
	Keep int
	// Interval is how often a backup runs without any commit event (default: 1h).
	Interval time.Duration
}

func DefaultBackupConfig() BackupConfig {
	return BackupConfig{
		Dir:      "./backups",
		Keep:     10,
		Interval: time.Hour,
	}
}

// BackupResult describes one completed backup run.
type BackupResult struct {
	Months   int
	Latest   string
	Snapshot string
	Pruned   int
}

// BackupWorker writes the stored ledger to disk as an importable document
// and mirrors the month summaries to a SummaryWriter.
type BackupWorker struct {
	adapter   *persistence.Adapter
	summaries sheets.SummaryWriter
	config    BackupConfig
	now       func() time.Time

	mu sync.Mutex
}

// NewBackupWorker creates the backup directory. summaries may be nil.
func NewBackupWorker(adapter *persistence.Adapter, summaries sheets.SummaryWriter, config BackupConfig) (*BackupWorker, error) {
	def := DefaultBackupConfig()
	if config.Dir == "" {
		config.Dir = def.Dir
	}
	if config.Keep <= 0 {
		config.Keep = def.Keep
	}
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &BackupWorker{
		adapter:   adapter,
		summaries: summaries,
		config:    config,
		now:       time.Now,
	}, nil
}

// HandleCommitted runs a backup for a commit event. A returned error makes
// the consumer requeue the message.
func (w *BackupWorker) HandleCommitted(ctx context.Context, msg *amqp.LedgerCommittedMessage) error {
	slog.InfoContext(ctx, "Processing ledger committed message",
		"id", msg.ID,
		"operation", msg.Operation,
		"version", msg.Version)

	if _, err := w.RunOnce(ctx); err != nil {
		return fmt.Errorf("backup after %s: %w", msg.Operation, err)
	}
	return nil
}

// Run backs up immediately and then on every interval until ctx is done.
func (w *BackupWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Backup worker started",
		"dir", w.config.Dir,
		"keep", w.config.Keep,
		"interval", w.config.Interval)

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "Periodic backup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Backup worker stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single backup. Runs are serialized.
func (w *BackupWorker) RunOnce(ctx context.Context) (BackupResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	months, err := w.adapter.Load(ctx)
	if err != nil {
		return BackupResult{}, fmt.Errorf("load ledger: %w", err)
	}
	doc, err := persistence.ExportSnapshot(months)
	if err != nil {
		return BackupResult{}, err
	}

	res := BackupResult{
		Months:   len(months),
		Latest:   filepath.Join(w.config.Dir, persistence.ExportFileName),
		Snapshot: filepath.Join(w.config.Dir, w.snapshotName()),
	}
	if err := file.WriteAtomic(res.Latest, doc, 0o644); err != nil {
		return BackupResult{}, fmt.Errorf("write latest backup: %w", err)
	}
	if err := file.WriteAtomic(res.Snapshot, doc, 0o644); err != nil {
		return BackupResult{}, fmt.Errorf("write snapshot backup: %w", err)
	}

	res.Pruned, err = w.prune()
	if err != nil {
		slog.WarnContext(ctx, "Failed to prune old backups", "error", err)
	}

	if w.summaries != nil {
		if err := w.summaries.WriteSummaries(ctx, core.Summaries(months)); err != nil {
			return res, fmt.Errorf("write summaries: %w", err)
		}
	}

	slog.InfoContext(ctx, "Backup completed",
		"months", res.Months,
		"snapshot", res.Snapshot,
		"pruned", res.Pruned)
	return res, nil
}

func (w *BackupWorker) snapshotName() string {
	base := strings.TrimSuffix(persistence.ExportFileName, ".json")
	return base + "-" + w.now().UTC().Format(snapshotStampLayout) + ".json"
}

// Snapshots lists the timestamped copies, oldest first.
func (w *BackupWorker) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	prefix := strings.TrimSuffix(persistence.ExportFileName, ".json") + "-"
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (w *BackupWorker) prune() (int, error) {
	names, err := w.Snapshots()
	if err != nil {
		return 0, err
	}
	excess := len(names) - w.config.Keep
	removed := 0
	for i := 0; i < excess; i++ {
		if err := os.Remove(filepath.Join(w.config.Dir, names[i])); err != nil {
			return removed, fmt.Errorf("remove %s: %w", names[i], err)
		}
		removed++
	}
	return removed, nil
}
