package services

import (
	"context"
	"fmt"
	"sync"

	"orcamento/internal/amqp"
	"orcamento/internal/core"
	"orcamento/internal/ledger"
	applog "orcamento/internal/log"
	"orcamento/internal/persistence"
)

// Operation names carried by commit events and logs.
const (
	OpCreateMonth   = "create_month"
	OpDeleteMonth   = "delete_month"
	OpAddExpense    = "add_expense"
	OpAddIncome     = "add_income"
	OpRemoveExpense = "remove_expense"
	OpRemoveIncome  = "remove_income"
	OpToggleExpense = "toggle_expense"
	OpImport        = "import"
)

// Publisher announces persisted changes.
type Publisher interface {
	PublishLedgerCommitted(ctx context.Context, msg *amqp.LedgerCommittedMessage) error
}

// Versioner is implemented by slots that count their own writes.
type Versioner interface {
	Version(ctx context.Context, key string) (int64, error)
}

// State is a read-only view of the ledger.
type State struct {
	Months   []core.Month `json:"months"`
	Selected *int         `json:"selected"`
}

// LedgerService serializes access to the ledger and makes every mutation
// durable before reporting success. A mutation whose save fails is rolled
// back in memory.
type LedgerService struct {
	mu        sync.Mutex
	store     *ledger.Store
	adapter   *persistence.Adapter
	publisher Publisher
	versioner Versioner
	version   int64
	logger    *applog.Logger
	events    *applog.StructuredLogger
}

type ServiceOption func(*LedgerService)

// WithPublisher enables commit events.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *LedgerService) { s.publisher = p }
}

// WithVersioner takes event versions from the slot instead of a local counter.
func WithVersioner(v Versioner) ServiceOption {
	return func(s *LedgerService) { s.versioner = v }
}

// NewLedgerService loads the stored ledger. A slot that exists but cannot be
// decoded is an error, so it is never overwritten by an empty ledger.
func NewLedgerService(ctx context.Context, adapter *persistence.Adapter, logger *applog.Logger, opts ...ServiceOption) (*LedgerService, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &LedgerService{
		adapter: adapter,
		logger:  logger.WithComponent(applog.ComponentLedger),
		events:  applog.NewStructuredLogger(logger),
	}
	for _, opt := range opts {
		opt(s)
	}

	months, err := adapter.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	s.store = ledger.New(months)

	if s.versioner != nil {
		v, err := s.versioner.Version(ctx, persistence.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("read ledger version: %w", err)
		}
		s.version = v
	}

	s.logger.InfoContext(ctx, "Ledger loaded",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldMonths, len(months),
		applog.FieldVersion, s.version)

	return s, nil
}

// State returns a copy of the months and the selected index.
func (s *LedgerService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// VersionedState returns the state together with the version it was taken at.
func (s *LedgerService) VersionedState() (int64, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, s.stateLocked()
}

func (s *LedgerService) stateLocked() State {
	st := State{Months: s.store.Months()}
	if i, ok := s.store.Selected(); ok {
		st.Selected = &i
	}
	return st
}

func (s *LedgerService) Summaries() []core.MonthSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summaries(s.store.Months())
}

// VersionedSummaries returns the summaries together with the version they
// were taken at.
func (s *LedgerService) VersionedSummaries() (int64, []core.MonthSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, core.Summaries(s.store.Months())
}

// Version returns the version of the last committed change.
func (s *LedgerService) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *LedgerService) CreateMonth(ctx context.Context, name string) error {
	return s.commit(ctx, OpCreateMonth, -1, -1, func(st *ledger.Store) error {
		return st.CreateMonth(name)
	})
}

func (s *LedgerService) DeleteMonth(ctx context.Context, month int) error {
	return s.commit(ctx, OpDeleteMonth, month, -1, func(st *ledger.Store) error {
		return st.DeleteMonth(month)
	})
}

// SelectMonth changes the selection. Selection is not persisted, so
// nothing is saved or published.
func (s *LedgerService) SelectMonth(ctx context.Context, month int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SelectMonth(month); err != nil {
		s.events.LogRejected(ctx, "select_month", month, errorType(err), err)
		return err
	}
	return nil
}

func (s *LedgerService) AddExpense(ctx context.Context, month int, description, amount string) error {
	return s.commit(ctx, OpAddExpense, month, -1, func(st *ledger.Store) error {
		return st.AddExpense(month, description, amount)
	})
}

func (s *LedgerService) AddIncome(ctx context.Context, month int, source, amount string) error {
	return s.commit(ctx, OpAddIncome, month, -1, func(st *ledger.Store) error {
		return st.AddIncome(month, source, amount)
	})
}

func (s *LedgerService) RemoveExpense(ctx context.Context, month, item int) error {
	return s.commit(ctx, OpRemoveExpense, month, item, func(st *ledger.Store) error {
		return st.RemoveExpense(month, item)
	})
}

func (s *LedgerService) RemoveIncome(ctx context.Context, month, item int) error {
	return s.commit(ctx, OpRemoveIncome, month, item, func(st *ledger.Store) error {
		return st.RemoveIncome(month, item)
	})
}

func (s *LedgerService) ToggleExpensePaid(ctx context.Context, month, item int) error {
	return s.commit(ctx, OpToggleExpense, month, item, func(st *ledger.Store) error {
		return st.ToggleExpensePaid(month, item)
	})
}

// Export renders the current months as a backup document.
func (s *LedgerService) Export() ([]byte, error) {
	s.mu.Lock()
	months := s.store.Months()
	s.mu.Unlock()
	return persistence.ExportSnapshot(months)
}

// Import replaces every month with the contents of an exported document.
// The document is parsed before the ledger is touched; on failure the
// returned error is a *core.ImportError and nothing changes.
func (s *LedgerService) Import(ctx context.Context, text []byte) (int, error) {
	months, err := s.adapter.ImportSnapshot(text)
	if err != nil {
		s.events.LogRejected(ctx, OpImport, -1, applog.ErrorTypeImport, err)
		return 0, err
	}
	err = s.commit(ctx, OpImport, -1, -1, func(st *ledger.Store) error {
		st.Replace(months)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(months), nil
}

// commit applies fn under the lock, saves the result and publishes a
// commit event once the lock is released.
func (s *LedgerService) commit(ctx context.Context, op string, month, item int, fn func(*ledger.Store) error) error {
	s.mu.Lock()
	snap := s.store.Snapshot()
	if err := fn(s.store); err != nil {
		s.mu.Unlock()
		s.events.LogRejected(ctx, op, month, errorType(err), err)
		return err
	}

	months := s.store.Months()
	if err := s.adapter.Save(ctx, months); err != nil {
		s.store.Restore(snap)
		s.mu.Unlock()
		s.events.LogError(ctx, "Failed to save ledger, change rolled back", err,
			applog.ComponentStorage, op, applog.NewFields().WithMonth(month))
		return fmt.Errorf("save ledger: %w", err)
	}

	version := s.nextVersion(ctx)
	s.mu.Unlock()

	s.events.LogCommitted(ctx, op, month, item, version, len(months))
	s.publish(ctx, op, version, len(months))
	return nil
}

// nextVersion must be called with the lock held. Versions strictly
// increase: a slot version that does not move past the last one handed out,
// as after a failed read fell back to the local counter, is skipped over.
func (s *LedgerService) nextVersion(ctx context.Context) int64 {
	if s.versioner != nil {
		v, err := s.versioner.Version(ctx, persistence.StorageKey)
		if err == nil && v > s.version {
			s.version = v
			return v
		}
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to read slot version, using local counter", applog.FieldError, err)
		}
	}
	s.version++
	return s.version
}

func (s *LedgerService) publish(ctx context.Context, op string, version int64, months int) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping commit event")
		return
	}

	msg := amqp.NewLedgerCommittedMessage(op, version, months)
	if err := s.publisher.PublishLedgerCommitted(ctx, msg); err != nil {
		// the change is already durable
		s.logger.ErrorContext(ctx, "Failed to publish commit event",
			applog.FieldOperation, op,
			applog.FieldVersion, version,
			applog.FieldError, err)
	}
}

func errorType(err error) string {
	switch {
	case core.IsValidation(err):
		return applog.ErrorTypeValidation
	case core.IsIndex(err):
		return applog.ErrorTypeNotFound
	case core.IsImport(err):
		return applog.ErrorTypeImport
	default:
		return applog.ErrorTypeInternal
	}
}
