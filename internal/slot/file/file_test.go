package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"orcamento/internal/slot"
)

func TestFileStoreGetPut(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := s.Get(ctx, "orcamentoFinanceiro"); !errors.Is(err, slot.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, "orcamentoFinanceiro", []byte(`[{"nome":"Jan"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "orcamentoFinanceiro")
	if err != nil || string(got) != `[{"nome":"Jan"}]` {
		t.Fatalf("unexpected get: %q err=%v", got, err)
	}

	if err := s.Put(ctx, "orcamentoFinanceiro", []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ = s.Get(ctx, "orcamentoFinanceiro")
	if string(got) != `[]` {
		t.Fatalf("expected replaced value, got %q", got)
	}

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "orcamentoFinanceiro.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected directory contents: %v", names)
	}
}

func TestPathEscapesKey(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p := s.Path("../escape")
	if filepath.Dir(p) != s.dir {
		t.Fatalf("key escaped data directory: %s", p)
	}
}

func TestCanceledContext(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Put(ctx, "k", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
