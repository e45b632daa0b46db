package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"orcamento/internal/slot"

	_ "modernc.org/sqlite"
)

// DefaultHistoryKeep is how many past revisions of each slot are retained.
const DefaultHistoryKeep = 20

var _ slot.Slot = (*SQLiteRepository)(nil)

// SQLiteRepository is a slot.Slot backed by a SQLite database. Each Put
// bumps the slot version and records the previous values in a bounded
// history table.
type SQLiteRepository struct {
	db          *sql.DB
	queries     *Queries
	historyKeep int64
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps Put transactions serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:          db,
		queries:     New(db),
		historyKeep: DefaultHistoryKeep,
	}

	return repo, nil
}

// SetHistoryKeep changes how many revisions are retained per key.
func (r *SQLiteRepository) SetHistoryKeep(n int) {
	if n > 0 {
		r.historyKeep = int64(n)
	}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements slot.Reader
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	s, err := r.queries.GetSlot(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, slot.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return s.Value, nil
}

// Put implements slot.Writer. The new value and its history row are
// written in one transaction.
func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	version, err := q.UpsertSlot(ctx, key, value)
	if err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	if err := q.InsertRevision(ctx, key, version, value); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	if err := q.PruneRevisions(ctx, key, r.historyKeep); err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "Slot saved to SQLite",
		"key", key,
		"version", version,
		"bytes", len(value))

	return nil
}

// Version returns the number of writes the slot has received, 0 if none.
func (r *SQLiteRepository) Version(ctx context.Context, key string) (int64, error) {
	s, err := r.queries.GetSlot(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get slot version: %w", err)
	}
	return s.Version, nil
}

// Revisions returns up to limit stored revisions of key, newest first.
func (r *SQLiteRepository) Revisions(ctx context.Context, key string, limit int) ([]SlotRevision, error) {
	items, err := r.queries.ListRevisions(ctx, key, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return items, nil
}
