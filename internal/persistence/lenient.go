package persistence

import (
	"encoding/json"

	"orcamento/internal/core"
)

// decodeMonths accepts any JSON array. An element or field whose JSON type
// does not fit the month model decodes to its zero value instead of failing
// the whole document.
func decodeMonths(doc []byte) ([]core.Month, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(doc, &items); err != nil {
		return nil, err
	}
	months := make([]core.Month, 0, len(items))
	for _, raw := range items {
		months = append(months, decodeMonth(raw))
	}
	return months, nil
}

func decodeMonth(raw json.RawMessage) core.Month {
	var m core.Month
	if json.Unmarshal(raw, &m) == nil {
		return m
	}

	m = core.Month{}
	fields := objectFields(raw)
	decodeField(fields, "nome", &m.Name)
	decodeField(fields, "totalDespesas", &m.TotalExpenses)
	decodeField(fields, "totalRendas", &m.TotalIncomes)
	decodeField(fields, "saldo", &m.Balance)
	if items, ok := arrayItems(fields, "despesas"); ok {
		m.Expenses = make([]core.Expense, 0, len(items))
		for _, item := range items {
			m.Expenses = append(m.Expenses, decodeExpense(item))
		}
	}
	if items, ok := arrayItems(fields, "rendas"); ok {
		m.Incomes = make([]core.Income, 0, len(items))
		for _, item := range items {
			m.Incomes = append(m.Incomes, decodeIncome(item))
		}
	}
	return m
}

func decodeExpense(raw json.RawMessage) core.Expense {
	var e core.Expense
	if json.Unmarshal(raw, &e) == nil {
		return e
	}
	e = core.Expense{}
	fields := objectFields(raw)
	decodeField(fields, "descricao", &e.Description)
	decodeField(fields, "valor", &e.Amount)
	decodeField(fields, "valorPago", &e.PaidAmount)
	decodeField(fields, "status", &e.Status)
	return e
}

func decodeIncome(raw json.RawMessage) core.Income {
	var in core.Income
	if json.Unmarshal(raw, &in) == nil {
		return in
	}
	in = core.Income{}
	fields := objectFields(raw)
	decodeField(fields, "fonte", &in.Source)
	decodeField(fields, "valor", &in.Amount)
	return in
}

// objectFields returns nil when raw is not a JSON object.
func objectFields(raw json.RawMessage) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return nil
	}
	return fields
}

func arrayItems(fields map[string]json.RawMessage, key string) ([]json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil || items == nil {
		return nil, false
	}
	return items, true
}

// decodeField leaves dst untouched when the field is absent or ill-typed.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if json.Unmarshal(raw, &v) == nil {
		*dst = v
	}
}
