// Package ledger holds the in-memory list of months and the transitions
// that keep each month's derived totals consistent.
//
// A Store performs no I/O and no locking. Every operation validates its
// input before touching state, so a rejected call leaves the Store exactly
// as it was.
package ledger

import (
	"strings"

	"orcamento/internal/core"
)

const noSelection = -1

// Store is the ordered, name-unique collection of months plus the
// currently selected month.
type Store struct {
	months   []core.Month
	selected int
}

// New returns a Store holding months in the given order with nothing
// selected. The slice is copied.
func New(months []core.Month) *Store {
	s := &Store{selected: noSelection}
	s.months = cloneMonths(months)
	return s
}

// Len returns the number of months.
func (s *Store) Len() int {
	return len(s.months)
}

// Months returns a deep copy of all months in display order.
func (s *Store) Months() []core.Month {
	return cloneMonths(s.months)
}

// Month returns a copy of the month at index i.
func (s *Store) Month(i int) (core.Month, error) {
	if err := s.checkMonth(i); err != nil {
		return core.Month{}, err
	}
	return s.months[i].Clone(), nil
}

// Selected returns the selected month index, if any.
func (s *Store) Selected() (int, bool) {
	if s.selected == noSelection || s.selected >= len(s.months) {
		return 0, false
	}
	return s.selected, true
}

// CreateMonth appends an empty month and selects it. Blank names and
// names already present (case-insensitively) are rejected.
func (s *Store) CreateMonth(name string) error {
	if strings.TrimSpace(name) == "" {
		return &core.ValidationError{Field: "nome", Err: core.ErrEmptyName}
	}
	for _, m := range s.months {
		if core.SameName(m.Name, name) {
			return &core.ValidationError{Field: "nome", Err: core.ErrDuplicateMonth}
		}
	}
	s.months = append(s.months, core.NewMonth(name))
	s.selected = len(s.months) - 1
	return nil
}

// DeleteMonth removes the month at index i. A selection pointing at the
// removed month is cleared; one pointing after it follows its month.
func (s *Store) DeleteMonth(i int) error {
	if err := s.checkMonth(i); err != nil {
		return err
	}
	s.months = append(s.months[:i], s.months[i+1:]...)
	switch {
	case s.selected == i:
		s.selected = noSelection
	case s.selected > i:
		s.selected--
	}
	return nil
}

// SelectMonth changes the selected month.
func (s *Store) SelectMonth(i int) error {
	if err := s.checkMonth(i); err != nil {
		return err
	}
	s.selected = i
	return nil
}

// AddExpense appends a pending expense parsed from user text.
func (s *Store) AddExpense(monthIndex int, description, amountText string) error {
	if err := s.checkMonth(monthIndex); err != nil {
		return err
	}
	if strings.TrimSpace(description) == "" {
		return &core.ValidationError{Field: "descricao", Err: core.ErrEmptyDescription}
	}
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return &core.ValidationError{Field: "valor", Err: err}
	}

	m := &s.months[monthIndex]
	m.Expenses = append(m.Expenses, core.NewExpense(description, amount))
	m.Recalculate()
	return nil
}

// AddIncome appends an income parsed from user text.
func (s *Store) AddIncome(monthIndex int, source, amountText string) error {
	if err := s.checkMonth(monthIndex); err != nil {
		return err
	}
	if strings.TrimSpace(source) == "" {
		return &core.ValidationError{Field: "fonte", Err: core.ErrEmptySource}
	}
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return &core.ValidationError{Field: "valor", Err: err}
	}

	m := &s.months[monthIndex]
	m.Incomes = append(m.Incomes, core.Income{Source: source, Amount: amount})
	m.Recalculate()
	return nil
}

// RemoveExpense deletes the expense at expenseIndex, keeping the order of
// the remaining entries.
func (s *Store) RemoveExpense(monthIndex, expenseIndex int) error {
	if err := s.checkMonth(monthIndex); err != nil {
		return err
	}
	m := &s.months[monthIndex]
	if expenseIndex < 0 || expenseIndex >= len(m.Expenses) {
		return &core.IndexError{Kind: "expense", Index: expenseIndex, Len: len(m.Expenses)}
	}
	m.Expenses = append(m.Expenses[:expenseIndex], m.Expenses[expenseIndex+1:]...)
	m.Recalculate()
	return nil
}

// RemoveIncome deletes the income at incomeIndex, keeping the order of the
// remaining entries.
func (s *Store) RemoveIncome(monthIndex, incomeIndex int) error {
	if err := s.checkMonth(monthIndex); err != nil {
		return err
	}
	m := &s.months[monthIndex]
	if incomeIndex < 0 || incomeIndex >= len(m.Incomes) {
		return &core.IndexError{Kind: "income", Index: incomeIndex, Len: len(m.Incomes)}
	}
	m.Incomes = append(m.Incomes[:incomeIndex], m.Incomes[incomeIndex+1:]...)
	m.Recalculate()
	return nil
}

// ToggleExpensePaid flips an expense between Pending and Paid. Totals are
// left alone: TotalExpenses always counts the full committed amount.
func (s *Store) ToggleExpensePaid(monthIndex, expenseIndex int) error {
	if err := s.checkMonth(monthIndex); err != nil {
		return err
	}
	m := &s.months[monthIndex]
	if expenseIndex < 0 || expenseIndex >= len(m.Expenses) {
		return &core.IndexError{Kind: "expense", Index: expenseIndex, Len: len(m.Expenses)}
	}
	m.Expenses[expenseIndex].TogglePaid()
	return nil
}

// Replace swaps the whole month list, as an import does, and clears the
// selection. Months are stored as given.
func (s *Store) Replace(months []core.Month) {
	s.months = cloneMonths(months)
	s.selected = noSelection
}

// Snapshot captures the full state so it can be restored with Restore.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{months: cloneMonths(s.months), selected: s.selected}
}

// Restore puts back a state captured by Snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.months = cloneMonths(snap.months)
	s.selected = snap.selected
}

// Snapshot is an opaque copy of a Store's state.
type Snapshot struct {
	months   []core.Month
	selected int
}

func (s *Store) checkMonth(i int) error {
	if i < 0 || i >= len(s.months) {
		return &core.IndexError{Kind: "month", Index: i, Len: len(s.months)}
	}
	return nil
}

func cloneMonths(in []core.Month) []core.Month {
	out := make([]core.Month, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
