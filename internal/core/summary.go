package core

// MonthSummary is a compact overview of one month, separating what is
// planned (TotalExpenses) from what is already paid.
type MonthSummary struct {
	Name            string  `json:"name"`
	TotalIncomes    float64 `json:"total_incomes"`
	TotalExpenses   float64 `json:"total_expenses"`
	Balance         float64 `json:"balance"`
	PaidExpenses    float64 `json:"paid_expenses"`
	PendingExpenses float64 `json:"pending_expenses"`
	ExpenseCount    int     `json:"expense_count"`
	IncomeCount     int     `json:"income_count"`
}

// Summary reports the month's stored totals plus the paid/pending split.
func (m Month) Summary() MonthSummary {
	s := MonthSummary{
		Name:          m.Name,
		TotalIncomes:  m.TotalIncomes,
		TotalExpenses: m.TotalExpenses,
		Balance:       m.Balance,
		ExpenseCount:  len(m.Expenses),
		IncomeCount:   len(m.Incomes),
	}
	for _, e := range m.Expenses {
		if e.IsPaid() && e.PaidAmount != nil {
			s.PaidExpenses += *e.PaidAmount
		} else {
			s.PendingExpenses += e.Amount
		}
	}
	return s
}

// Summaries returns one summary per month, in store order.
func Summaries(months []Month) []MonthSummary {
	out := make([]MonthSummary, len(months))
	for i, m := range months {
		out[i] = m.Summary()
	}
	return out
}
