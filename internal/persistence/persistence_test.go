package persistence

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"orcamento/internal/core"
	"orcamento/internal/ledger"
	"orcamento/internal/slot/memory"
)

func sampleMonths(t *testing.T) []core.Month {
	t.Helper()
	s := ledger.New(nil)
	require.NoError(t, s.CreateMonth("Março"))
	require.NoError(t, s.AddIncome(0, "Salary", "1000"))
	require.NoError(t, s.AddExpense(0, "Rent", "400"))
	require.NoError(t, s.AddExpense(0, "Gym", "89,90"))
	require.NoError(t, s.ToggleExpensePaid(0, 0))
	require.NoError(t, s.CreateMonth("Abril"))
	return s.Months()
}

func TestLoadAbsentSlotIsEmpty(t *testing.T) {
	a := NewAdapter(memory.New())
	months, err := a.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, months)
	require.Empty(t, months)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	a := NewAdapter(store)
	months := sampleMonths(t)

	require.NoError(t, a.Save(ctx, months))
	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "\n")

	got, err := a.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, months, got)
}

func TestSaveEmptyStoreWritesEmptyList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, NewAdapter(store).Save(ctx, nil))
	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw))
}

func TestLoadCorruptSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Put(ctx, StorageKey, []byte("{oops")))
	_, err := NewAdapter(store).Load(ctx)
	require.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	months := sampleMonths(t)
	doc, err := ExportSnapshot(months)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(doc), "[\n  {"))
	require.Contains(t, string(doc), `"valorPago": null`)

	for _, strict := range []bool{false, true} {
		got, err := NewAdapter(memory.New(), WithStrictImport(strict)).ImportSnapshot(doc)
		require.NoError(t, err)
		require.Equal(t, months, got)
	}
}

func TestExportImportRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewAdapter(memory.New())
	for round := 0; round < 50; round++ {
		s := ledger.New(nil)
		for m := 0; m < rng.Intn(4)+1; m++ {
			require.NoError(t, s.CreateMonth("M"+strconv.Itoa(m)))
			for k := 0; k < rng.Intn(6); k++ {
				amount := strconv.FormatFloat(float64(rng.Intn(99999)+1)/100, 'f', -1, 64)
				require.NoError(t, s.AddExpense(m, "e"+strconv.Itoa(k), amount))
				require.NoError(t, s.AddIncome(m, "i"+strconv.Itoa(k), amount))
				if rng.Intn(2) == 0 {
					require.NoError(t, s.ToggleExpensePaid(m, k))
				}
			}
		}
		doc, err := ExportSnapshot(s.Months())
		require.NoError(t, err)
		got, err := a.ImportSnapshot(doc)
		require.NoError(t, err)
		require.Equal(t, s.Months(), got)
	}
}

func TestImportRejectsBadDocuments(t *testing.T) {
	a := NewAdapter(memory.New())
	for _, doc := range []string{
		"not json",
		"",
		"   ",
		"null",
		`{"nome":"Jan"}`,
		`"months"`,
		`[{"nome":"Jan"}`,
	} {
		months, err := a.ImportSnapshot([]byte(doc))
		require.Nilf(t, months, "doc %q", doc)
		require.Truef(t, core.IsImport(err), "doc %q: expected ImportError, got %v", doc, err)
	}
}

func TestImportPermissiveKeepsDocumentVerbatim(t *testing.T) {
	doc := `[{"nome":"Jan","despesas":[{"descricao":"","valor":-5,"valorPago":null,"status":"Pago"}],"rendas":[],"totalDespesas":999,"totalRendas":0,"saldo":1}]`
	months, err := NewAdapter(memory.New()).ImportSnapshot([]byte(doc))
	require.NoError(t, err)
	require.Len(t, months, 1)
	require.Equal(t, 999.0, months[0].TotalExpenses)
	require.Equal(t, 1.0, months[0].Balance)
}

func TestImportPermissiveAcceptsAnyArray(t *testing.T) {
	a := NewAdapter(memory.New())

	tests := []struct {
		name  string
		doc   string
		check func(t *testing.T, months []core.Month)
	}{
		{"non-object element", `[1]`, func(t *testing.T, months []core.Month) {
			require.Equal(t, []core.Month{{}}, months)
		}},
		{"null element", `[null]`, func(t *testing.T, months []core.Month) {
			require.Equal(t, []core.Month{{}}, months)
		}},
		{"ill-typed name", `[{"nome": 3, "saldo": 7}]`, func(t *testing.T, months []core.Month) {
			require.Empty(t, months[0].Name)
			require.Equal(t, 7.0, months[0].Balance)
		}},
		{"expense list is not a list", `[{"nome":"Jan","despesas":"x","rendas":[{"fonte":"Job","valor":10}]}]`, func(t *testing.T, months []core.Month) {
			require.Equal(t, "Jan", months[0].Name)
			require.Nil(t, months[0].Expenses)
			require.Equal(t, []core.Income{{Source: "Job", Amount: 10}}, months[0].Incomes)
		}},
		{"ill-typed items keep their neighbours", `[{"nome":"Jan","despesas":[{"descricao":"A","valor":"10","status":"Pendente"},{"descricao":"B","valor":5,"status":"Pendente"},7]}]`, func(t *testing.T, months []core.Month) {
			require.Len(t, months[0].Expenses, 3)
			require.Equal(t, core.Expense{Description: "A", Status: core.StatusPending}, months[0].Expenses[0])
			require.Equal(t, 5.0, months[0].Expenses[1].Amount)
			require.Equal(t, core.Expense{}, months[0].Expenses[2])
		}},
		{"unknown fields", `[{"nome":"Jan","valorExtra":1}]`, func(t *testing.T, months []core.Month) {
			require.Equal(t, "Jan", months[0].Name)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			months, err := a.ImportSnapshot([]byte(tt.doc))
			require.NoError(t, err)
			require.Len(t, months, 1)
			tt.check(t, months)
		})
	}
}

func TestImportStrictRejectsIllTypedDocuments(t *testing.T) {
	a := NewAdapter(memory.New(), WithStrictImport(true))
	for _, doc := range []string{
		`[1]`,
		`[{"nome": 3}]`,
		`[{"nome":"Jan","despesas":"x"}]`,
	} {
		months, err := a.ImportSnapshot([]byte(doc))
		require.Nilf(t, months, "doc %s", doc)
		require.Truef(t, core.IsImport(err), "doc %s: expected ImportError, got %v", doc, err)
	}
}

func TestImportStrictValidatesAndRecalculates(t *testing.T) {
	a := NewAdapter(memory.New(), WithStrictImport(true))

	months, err := a.ImportSnapshot([]byte(`[{"nome":"Jan","despesas":[{"descricao":"Rent","valor":400,"valorPago":null,"status":"Pendente"}],"rendas":[{"fonte":"Job","valor":1000}],"totalDespesas":0,"totalRendas":0,"saldo":0}]`))
	require.NoError(t, err)
	require.Equal(t, 400.0, months[0].TotalExpenses)
	require.Equal(t, 600.0, months[0].Balance)

	months, err = a.ImportSnapshot([]byte(`[{"nome":"Feb"}]`))
	require.NoError(t, err)
	require.NotNil(t, months[0].Expenses)
	require.NotNil(t, months[0].Incomes)

	for _, doc := range []string{
		`[{"nome":" "}]`,
		`[{"nome":"Jan"},{"nome":"JAN"}]`,
		`[{"nome":"Jan","despesas":[{"descricao":"x","valor":0,"status":"Pendente"}]}]`,
		`[{"nome":"Jan","despesas":[{"descricao":"x","valor":1,"valorPago":null,"status":"Pago"}]}]`,
		`[{"nome":"Jan","rendas":[{"fonte":"","valor":1}]}]`,
	} {
		_, err := a.ImportSnapshot([]byte(doc))
		require.Truef(t, core.IsImport(err), "doc %s", doc)
		require.Truef(t, core.IsValidation(err), "doc %s", doc)
	}
}

type failingSlot struct{ err error }

func (f failingSlot) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingSlot) Put(context.Context, string, []byte) error   { return f.err }

func TestSlotErrorsAreWrapped(t *testing.T) {
	boom := errors.New("disk full")
	a := NewAdapter(failingSlot{err: boom})
	_, err := a.Load(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, a.Save(context.Background(), nil), boom)
}
