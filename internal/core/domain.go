package core

import (
	"strings"
)

const (
	StatusPending Status = "Pendente"
	StatusPaid    Status = "Pago"
)

type (
	// Status mirrors whether an expense has a paid amount recorded.
	Status string

	Expense struct {
		Description string   `json:"descricao"`
		Amount      float64  `json:"valor"`
		PaidAmount  *float64 `json:"valorPago"` // nil while pending
		Status      Status   `json:"status"`
	}

	Income struct {
		Source string  `json:"fonte"`
		Amount float64 `json:"valor"`
	}

	// Month is a named budgeting period. The totals and the balance are
	// derived from the two lists and must be refreshed with Recalculate
	// after any insertion or removal.
	Month struct {
		Name          string    `json:"nome"`
		Expenses      []Expense `json:"despesas"`
		Incomes       []Income  `json:"rendas"`
		TotalExpenses float64   `json:"totalDespesas"`
		TotalIncomes  float64   `json:"totalRendas"`
		Balance       float64   `json:"saldo"`
	}
)

// NewMonth returns an empty month with zeroed totals.
func NewMonth(name string) Month {
	return Month{
		Name:     name,
		Expenses: []Expense{},
		Incomes:  []Income{},
	}
}

// NewExpense returns a pending expense.
func NewExpense(description string, amount float64) Expense {
	return Expense{
		Description: description,
		Amount:      amount,
		Status:      StatusPending,
	}
}

// IsPaid reports whether the expense carries a paid amount.
func (e Expense) IsPaid() bool {
	return e.Status == StatusPaid
}

// TogglePaid flips the expense between Pending and Paid. Marking it paid
// records the full amount as paid; reverting clears the paid amount.
func (e *Expense) TogglePaid() {
	if e.IsPaid() {
		e.Status = StatusPending
		e.PaidAmount = nil
		return
	}
	paid := e.Amount
	e.Status = StatusPaid
	e.PaidAmount = &paid
}

// Recalculate refreshes TotalExpenses, TotalIncomes and Balance from the
// current lists. Payment state does not affect TotalExpenses.
func (m *Month) Recalculate() {
	var expenses, incomes float64
	for _, e := range m.Expenses {
		expenses += e.Amount
	}
	for _, i := range m.Incomes {
		incomes += i.Amount
	}
	m.TotalExpenses = expenses
	m.TotalIncomes = incomes
	m.Balance = incomes - expenses
}

// Clone returns a deep copy of the month.
func (m Month) Clone() Month {
	out := m
	out.Expenses = make([]Expense, len(m.Expenses))
	for i, e := range m.Expenses {
		if e.PaidAmount != nil {
			paid := *e.PaidAmount
			e.PaidAmount = &paid
		}
		out.Expenses[i] = e
	}
	out.Incomes = append(make([]Income, 0, len(m.Incomes)), m.Incomes...)
	return out
}

// SameName compares month names the way uniqueness is enforced.
func SameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return &ValidationError{Field: "descricao", Err: ErrEmptyDescription}
	}
	if !validAmount(e.Amount) {
		return &ValidationError{Field: "valor", Err: ErrInvalidAmount}
	}
	switch e.Status {
	case StatusPaid:
		if e.PaidAmount == nil {
			return &ValidationError{Field: "valorPago", Err: ErrInconsistentStatus}
		}
	case StatusPending:
		if e.PaidAmount != nil {
			return &ValidationError{Field: "valorPago", Err: ErrInconsistentStatus}
		}
	default:
		return &ValidationError{Field: "status", Err: ErrInconsistentStatus}
	}
	return nil
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.Source) == "" {
		return &ValidationError{Field: "fonte", Err: ErrEmptySource}
	}
	if !validAmount(i.Amount) {
		return &ValidationError{Field: "valor", Err: ErrInvalidAmount}
	}
	return nil
}

// Validate checks the month name and every entry. Derived totals are not
// checked; callers recalculate them.
func (m Month) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "nome", Err: ErrEmptyName}
	}
	for _, e := range m.Expenses {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	for _, i := range m.Incomes {
		if err := i.Validate(); err != nil {
			return err
		}
	}
	return nil
}
