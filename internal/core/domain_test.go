package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewMonthIsEmpty(t *testing.T) {
	m := NewMonth("Março")
	if m.Expenses == nil || m.Incomes == nil {
		t.Fatalf("expected non-nil empty lists")
	}
	if m.TotalExpenses != 0 || m.TotalIncomes != 0 || m.Balance != 0 {
		t.Fatalf("expected zeroed totals, got %+v", m)
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"despesas":[]`) || !strings.Contains(string(b), `"rendas":[]`) {
		t.Fatalf("expected empty arrays in %s", b)
	}
}

func TestRecalculate(t *testing.T) {
	m := NewMonth("Jan")
	m.Incomes = append(m.Incomes, Income{Source: "Salary", Amount: 1000})
	m.Expenses = append(m.Expenses, NewExpense("Rent", 400), NewExpense("Food", 150.5))
	m.Expenses[1].TogglePaid()
	m.Recalculate()

	if m.TotalIncomes != 1000 || m.TotalExpenses != 550.5 || m.Balance != 449.5 {
		t.Fatalf("unexpected totals: %+v", m)
	}
}

func TestTogglePaidIsInvolutive(t *testing.T) {
	e := NewExpense("Rent", 400)
	e.TogglePaid()
	if e.Status != StatusPaid || e.PaidAmount == nil || *e.PaidAmount != 400 {
		t.Fatalf("expected paid with 400, got %+v", e)
	}
	e.TogglePaid()
	if e.Status != StatusPending || e.PaidAmount != nil {
		t.Fatalf("expected pending without paid amount, got %+v", e)
	}
}

func TestTogglePaidUnknownStatusBecomesPaid(t *testing.T) {
	e := Expense{Description: "x", Amount: 5, Status: "whatever"}
	e.TogglePaid()
	if !e.IsPaid() || e.PaidAmount == nil {
		t.Fatalf("expected paid, got %+v", e)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := NewMonth("Jan")
	m.Expenses = append(m.Expenses, NewExpense("Rent", 400))
	m.Expenses[0].TogglePaid()
	m.Incomes = append(m.Incomes, Income{Source: "Salary", Amount: 1000})

	c := m.Clone()
	*c.Expenses[0].PaidAmount = 1
	c.Incomes[0].Amount = 2
	c.Expenses = append(c.Expenses, NewExpense("Extra", 3))

	if *m.Expenses[0].PaidAmount != 400 || m.Incomes[0].Amount != 1000 || len(m.Expenses) != 1 {
		t.Fatalf("clone shares state with original: %+v", m)
	}
}

func TestExpenseJSONShape(t *testing.T) {
	b, err := json.Marshal(NewExpense("Rent", 400))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"descricao":"Rent","valor":400,"valorPago":null,"status":"Pendente"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestMonthValidate(t *testing.T) {
	paid := 10.0
	good := Month{
		Name:     "Jan",
		Expenses: []Expense{{Description: "a", Amount: 10, PaidAmount: &paid, Status: StatusPaid}},
		Incomes:  []Income{{Source: "b", Amount: 1}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		m    Month
		want error
	}{
		{Month{Name: " "}, ErrEmptyName},
		{Month{Name: "a", Expenses: []Expense{{Description: "", Amount: 1, Status: StatusPending}}}, ErrEmptyDescription},
		{Month{Name: "a", Expenses: []Expense{{Description: "d", Amount: 0, Status: StatusPending}}}, ErrInvalidAmount},
		{Month{Name: "a", Expenses: []Expense{{Description: "d", Amount: 1, Status: StatusPaid}}}, ErrInconsistentStatus},
		{Month{Name: "a", Expenses: []Expense{{Description: "d", Amount: 1, PaidAmount: &paid, Status: StatusPending}}}, ErrInconsistentStatus},
		{Month{Name: "a", Expenses: []Expense{{Description: "d", Amount: 1, Status: "?"}}}, ErrInconsistentStatus},
		{Month{Name: "a", Incomes: []Income{{Source: "", Amount: 1}}}, ErrEmptySource},
		{Month{Name: "a", Incomes: []Income{{Source: "s", Amount: -1}}}, ErrInvalidAmount},
	}
	for i, tc := range bads {
		err := tc.m.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected ValidationError, got %T", i, err)
		}
	}
}

func TestSummarySplitsPaidAndPending(t *testing.T) {
	m := NewMonth("Jan")
	m.Incomes = append(m.Incomes, Income{Source: "Salary", Amount: 1000})
	m.Expenses = append(m.Expenses, NewExpense("Rent", 400), NewExpense("Food", 100))
	m.Expenses[0].TogglePaid()
	m.Recalculate()

	s := m.Summary()
	if s.PaidExpenses != 400 || s.PendingExpenses != 100 {
		t.Fatalf("unexpected split: %+v", s)
	}
	if s.TotalExpenses != 500 || s.Balance != 500 || s.ExpenseCount != 2 || s.IncomeCount != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsIndex(&IndexError{Kind: "month", Index: 3, Len: 1}) {
		t.Fatalf("expected index error")
	}
	imp := &ImportError{Reason: "invalid JSON", Err: errors.New("boom")}
	if !IsImport(imp) || imp.Error() != "invalid JSON: boom" {
		t.Fatalf("unexpected import error: %v", imp)
	}
	if IsValidation(imp) {
		t.Fatalf("import error classified as validation")
	}
}
