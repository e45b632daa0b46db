package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"orcamento/internal/amqp"
	"orcamento/internal/core"
	applog "orcamento/internal/log"
	"orcamento/internal/persistence"
	"orcamento/internal/slot/memory"
)

var errDiskFull = errors.New("disk full")

// flakySlot fails every Put while failPuts is set.
type flakySlot struct {
	*memory.Store
	mu       sync.Mutex
	failPuts bool
}

func (f *flakySlot) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failPuts
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.Store.Put(ctx, key, value)
}

func (f *flakySlot) setFail(v bool) {
	f.mu.Lock()
	f.failPuts = v
	f.mu.Unlock()
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerCommittedMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerCommitted(_ context.Context, msg *amqp.LedgerCommittedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) operations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ops := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		ops[i] = m.Operation
	}
	return ops
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Level: applog.ParseLevel("error"), Output: io.Discard})
}

func newTestService(t *testing.T, opts ...ServiceOption) (*LedgerService, *flakySlot) {
	t.Helper()
	slot := &flakySlot{Store: memory.New()}
	svc, err := NewLedgerService(context.Background(), persistence.NewAdapter(slot), quietLogger(), opts...)
	require.NoError(t, err)
	return svc, slot
}

func TestLedgerServiceCommitsAndPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, slot := newTestService(t, WithPublisher(pub))

	require.NoError(t, svc.CreateMonth(ctx, "Março"))
	require.NoError(t, svc.AddIncome(ctx, 0, "Salary", "1000"))
	require.NoError(t, svc.AddExpense(ctx, 0, "Rent", "400"))
	require.NoError(t, svc.ToggleExpensePaid(ctx, 0, 0))

	st := svc.State()
	require.NotNil(t, st.Selected)
	require.Equal(t, 0, *st.Selected)
	require.Equal(t, 600.0, st.Months[0].Balance)

	reloaded, err := persistence.NewAdapter(slot).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, st.Months, reloaded)

	require.Equal(t, []string{OpCreateMonth, OpAddIncome, OpAddExpense, OpToggleExpense}, pub.operations())
	require.Equal(t, int64(4), pub.msgs[3].Version)
	require.Equal(t, 1, pub.msgs[3].Months)
	require.Equal(t, int64(4), svc.Version())
}

func TestLedgerServiceRejectedInputIsNotSavedOrPublished(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, slot := newTestService(t, WithPublisher(pub))

	require.NoError(t, svc.CreateMonth(ctx, "Jan"))
	puts := slot.Puts()

	require.True(t, core.IsValidation(svc.CreateMonth(ctx, "JAN")))
	require.True(t, core.IsValidation(svc.AddExpense(ctx, 0, "Rent", "abc")))
	require.True(t, core.IsIndex(svc.RemoveIncome(ctx, 0, 0)))
	require.True(t, core.IsIndex(svc.SelectMonth(ctx, 4)))

	require.Equal(t, puts, slot.Puts())
	require.Len(t, pub.operations(), 1)
}

func TestLedgerServiceRollsBackWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, slot := newTestService(t, WithPublisher(pub))

	require.NoError(t, svc.CreateMonth(ctx, "Jan"))
	require.NoError(t, svc.AddExpense(ctx, 0, "Rent", "400"))
	before := svc.State()

	slot.setFail(true)
	err := svc.AddExpense(ctx, 0, "Food", "50")
	require.ErrorIs(t, err, errDiskFull)
	require.ErrorIs(t, svc.DeleteMonth(ctx, 0), errDiskFull)
	require.Equal(t, before, svc.State())
	require.Len(t, pub.operations(), 2)

	slot.setFail(false)
	require.NoError(t, svc.AddExpense(ctx, 0, "Food", "50"))
	require.Equal(t, 450.0, svc.State().Months[0].TotalExpenses)
}

func TestLedgerServicePublishFailureDoesNotFailCommit(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, WithPublisher(pub))

	require.NoError(t, svc.CreateMonth(ctx, "Jan"))
	require.Equal(t, 1, len(svc.State().Months))
}

func TestLedgerServiceImport(t *testing.T) {
	ctx := context.Background()
	svc, slot := newTestService(t)

	require.NoError(t, svc.CreateMonth(ctx, "Jan"))
	require.NoError(t, svc.AddExpense(ctx, 0, "Rent", "400"))
	doc, err := svc.Export()
	require.NoError(t, err)

	before := svc.State()
	puts := slot.Puts()
	_, err = svc.Import(ctx, []byte("not json"))
	require.True(t, core.IsImport(err))
	require.Equal(t, before, svc.State())
	require.Equal(t, puts, slot.Puts())

	require.NoError(t, svc.CreateMonth(ctx, "Feb"))
	n, err := svc.Import(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	st := svc.State()
	require.Nil(t, st.Selected)
	require.Equal(t, before.Months, st.Months)
}

func TestLedgerServiceLoadsExistingSlot(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	adapter := persistence.NewAdapter(slot)
	m := core.NewMonth("Jan")
	require.NoError(t, adapter.Save(ctx, []core.Month{m}))

	svc, err := NewLedgerService(ctx, adapter, quietLogger())
	require.NoError(t, err)
	st := svc.State()
	require.Len(t, st.Months, 1)
	require.Nil(t, st.Selected)
}

func TestLedgerServiceRefusesCorruptSlot(t *testing.T) {
	ctx := context.Background()
	slot := memory.New()
	require.NoError(t, slot.Put(ctx, persistence.StorageKey, []byte("{")))

	_, err := NewLedgerService(ctx, persistence.NewAdapter(slot), quietLogger())
	require.Error(t, err)
}

type fixedVersioner struct{ v int64 }

func (f *fixedVersioner) Version(context.Context, string) (int64, error) {
	f.v += 10
	return f.v, nil
}

func TestLedgerServiceUsesSlotVersion(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, WithPublisher(pub), WithVersioner(&fixedVersioner{}))

	require.Equal(t, int64(10), svc.Version())
	require.NoError(t, svc.CreateMonth(ctx, "Jan"))
	require.Equal(t, int64(20), pub.msgs[0].Version)
}

// scriptedVersioner replays versions; a zero entry is a failed read.
type scriptedVersioner struct {
	versions []int64
}

func (v *scriptedVersioner) Version(context.Context, string) (int64, error) {
	next := v.versions[0]
	v.versions = v.versions[1:]
	if next == 0 {
		return 0, errors.New("database is locked")
	}
	return next, nil
}

func TestLedgerServiceVersionsNeverRepeat(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	// load, a failed read, then the slot catching up with the local counter
	svc, _ := newTestService(t, WithPublisher(pub), WithVersioner(&scriptedVersioner{versions: []int64{3, 0, 4, 9}}))
	require.Equal(t, int64(3), svc.Version())

	require.NoError(t, svc.CreateMonth(ctx, "Jan"))
	require.NoError(t, svc.AddIncome(ctx, 0, "Job", "100"))
	require.NoError(t, svc.AddExpense(ctx, 0, "Rent", "40"))

	var got []int64
	for _, m := range pub.msgs {
		got = append(got, m.Version)
	}
	require.Equal(t, []int64{4, 5, 9}, got)

	version, st := svc.VersionedState()
	require.Equal(t, int64(9), version)
	require.Equal(t, 60.0, st.Months[0].Balance)
}

func TestLedgerServiceConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.CreateMonth(ctx, "Jan"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.AddExpense(ctx, 0, "x", "1")
			_ = svc.AddIncome(ctx, 0, "y", "2")
			_ = svc.State()
		}()
	}
	wg.Wait()

	m := svc.State().Months[0]
	require.Len(t, m.Expenses, 20)
	require.Len(t, m.Incomes, 20)
	require.Equal(t, 20.0, m.Balance)
}
