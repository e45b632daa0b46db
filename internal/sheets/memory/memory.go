package memory

import (
	"context"
	"sync"

	"orcamento/internal/core"
	ports "orcamento/internal/sheets"
)

var _ ports.SummaryWriter = (*Store)(nil)

// Store keeps the last written summaries in memory.
type Store struct {
	mu     sync.Mutex
	items  []core.MonthSummary
	writes int
}

func New() *Store {
	return &Store{}
}

// WriteSummaries replaces the stored summaries with a copy of summaries.
func (s *Store) WriteSummaries(_ context.Context, summaries []core.MonthSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.MonthSummary(nil), summaries...)
	s.writes++
	return nil
}

// Summaries returns the last written summaries.
func (s *Store) Summaries() []core.MonthSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.MonthSummary(nil), s.items...)
}

// Writes reports how many times WriteSummaries was called.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
