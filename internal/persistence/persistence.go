// Package persistence serializes the month list to and from the storage
// slot and to the portable backup document users export and import.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"orcamento/internal/core"
	"orcamento/internal/slot"
)

const (
	// StorageKey is the slot holding the whole ledger.
	StorageKey = "orcamentoFinanceiro"
	// ExportFileName is the suggested name of an exported snapshot.
	ExportFileName = "orcamento_financeiro_backup.json"
)

// Adapter moves the month list between memory and a slot.Slot.
type Adapter struct {
	slot   slot.Slot
	key    string
	strict bool
}

type Option func(*Adapter)

// WithStrictImport makes ImportSnapshot reject malformed months and
// recalculate totals instead of accepting the document verbatim.
func WithStrictImport(strict bool) Option {
	return func(a *Adapter) { a.strict = strict }
}

// WithKey overrides StorageKey.
func WithKey(key string) Option {
	return func(a *Adapter) { a.key = key }
}

func NewAdapter(s slot.Slot, opts ...Option) *Adapter {
	a := &Adapter{slot: s, key: StorageKey}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Strict reports whether imports are validated.
func (a *Adapter) Strict() bool { return a.strict }

// Load reads the stored months. An absent slot yields an empty list.
func (a *Adapter) Load(ctx context.Context) ([]core.Month, error) {
	data, err := a.slot.Get(ctx, a.key)
	if errors.Is(err, slot.ErrNotFound) {
		return []core.Month{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", a.key, err)
	}

	var months []core.Month
	if err := json.Unmarshal(data, &months); err != nil {
		return nil, fmt.Errorf("decode slot %q: %w", a.key, err)
	}
	if months == nil {
		months = []core.Month{}
	}
	return months, nil
}

// Save replaces the slot contents with months.
func (a *Adapter) Save(ctx context.Context, months []core.Month) error {
	if months == nil {
		months = []core.Month{}
	}
	data, err := json.Marshal(months)
	if err != nil {
		return fmt.Errorf("encode months: %w", err)
	}
	if err := a.slot.Put(ctx, a.key, data); err != nil {
		return fmt.Errorf("write slot %q: %w", a.key, err)
	}
	return nil
}

// ExportSnapshot renders months as an indented JSON document.
func ExportSnapshot(months []core.Month) ([]byte, error) {
	if months == nil {
		months = []core.Month{}
	}
	data, err := json.MarshalIndent(months, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// ImportSnapshot parses an exported document. Any failure is returned as a
// *core.ImportError and nothing is produced.
//
// By default every top-level array is accepted: months, expenses and
// incomes are taken as they are, and fields of the wrong JSON type are left
// at their zero value. Unknown fields are dropped. Strict mode rejects
// ill-typed documents and validates every month.
func (a *Adapter) ImportSnapshot(text []byte) ([]core.Month, error) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return nil, &core.ImportError{Reason: "empty document"}
	}
	if trimmed[0] != '[' {
		return nil, &core.ImportError{Reason: "top-level value is not a list of months"}
	}

	if !a.strict {
		months, err := decodeMonths(trimmed)
		if err != nil {
			return nil, &core.ImportError{Reason: "malformed document", Err: err}
		}
		return months, nil
	}

	var months []core.Month
	if err := json.Unmarshal(trimmed, &months); err != nil {
		return nil, &core.ImportError{Reason: "malformed document", Err: err}
	}
	if months == nil {
		months = []core.Month{}
	}
	if err := normalize(months); err != nil {
		return nil, err
	}
	return months, nil
}

// normalize validates every month, rejects duplicate names and refreshes
// the derived totals in place.
func normalize(months []core.Month) error {
	for i := range months {
		m := &months[i]
		if err := m.Validate(); err != nil {
			return &core.ImportError{Reason: fmt.Sprintf("month %d", i), Err: err}
		}
		for j := 0; j < i; j++ {
			if core.SameName(months[j].Name, m.Name) {
				return &core.ImportError{
					Reason: fmt.Sprintf("month %d", i),
					Err:    &core.ValidationError{Field: "nome", Err: core.ErrDuplicateMonth},
				}
			}
		}
		if m.Expenses == nil {
			m.Expenses = []core.Expense{}
		}
		if m.Incomes == nil {
			m.Incomes = []core.Income{}
		}
		m.Recalculate()
	}
	return nil
}
