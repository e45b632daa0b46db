package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Slot struct {
	Key       string
	Value     []byte
	Version   int64
	UpdatedAt time.Time
}

type SlotRevision struct {
	ID        int64
	Key       string
	Version   int64
	Value     []byte
	CreatedAt time.Time
}

const getSlot = `SELECT key, value, version, updated_at FROM slots WHERE key = ?`

func (q *Queries) GetSlot(ctx context.Context, key string) (Slot, error) {
	row := q.db.QueryRowContext(ctx, getSlot, key)
	var s Slot
	err := row.Scan(&s.Key, &s.Value, &s.Version, &s.UpdatedAt)
	return s, err
}

const upsertSlot = `INSERT INTO slots (key, value, version, updated_at)
VALUES (?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    version = slots.version + 1,
    updated_at = CURRENT_TIMESTAMP
RETURNING version`

func (q *Queries) UpsertSlot(ctx context.Context, key string, value []byte) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertSlot, key, value)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const insertRevision = `INSERT INTO slot_history (key, version, value) VALUES (?, ?, ?)`

func (q *Queries) InsertRevision(ctx context.Context, key string, version int64, value []byte) error {
	_, err := q.db.ExecContext(ctx, insertRevision, key, version, value)
	return err
}

const pruneRevisions = `DELETE FROM slot_history
WHERE key = ? AND id NOT IN (
    SELECT id FROM slot_history WHERE key = ? ORDER BY version DESC LIMIT ?
)`

func (q *Queries) PruneRevisions(ctx context.Context, key string, keep int64) error {
	_, err := q.db.ExecContext(ctx, pruneRevisions, key, key, keep)
	return err
}

const listRevisions = `SELECT id, key, version, value, created_at FROM slot_history
WHERE key = ? ORDER BY version DESC LIMIT ?`

func (q *Queries) ListRevisions(ctx context.Context, key string, limit int64) ([]SlotRevision, error) {
	rows, err := q.db.QueryContext(ctx, listRevisions, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SlotRevision
	for rows.Next() {
		var r SlotRevision
		if err := rows.Scan(&r.ID, &r.Key, &r.Version, &r.Value, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
