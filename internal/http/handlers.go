package http

import (
	"net/http"

	"orcamento/internal/core"
	applog "orcamento/internal/log"
	"orcamento/internal/persistence"
)

type stateResponse struct {
	Months   []core.Month `json:"months"`
	Selected *int         `json:"selected"`
	Version  int64        `json:"version"`
}

type summaryView struct {
	core.MonthSummary
	Formatted formattedSummary `json:"formatted"`
}

type formattedSummary struct {
	TotalIncomes    string `json:"total_incomes"`
	TotalExpenses   string `json:"total_expenses"`
	Balance         string `json:"balance"`
	PaidExpenses    string `json:"paid_expenses"`
	PendingExpenses string `json:"pending_expenses"`
}

type summariesResponse struct {
	Version   int64         `json:"version"`
	Summaries []summaryView `json:"summaries"`
}

type importResponse struct {
	Imported int   `json:"imported"`
	Version  int64 `json:"version"`
}

func (s *Server) state() stateResponse {
	version, st := s.ledger.VersionedState()
	return stateResponse{Months: st.Months, Selected: st.Selected, Version: version}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	version, sums := s.ledger.VersionedSummaries()
	if cached, ok := s.summaryCache.Get(version); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	resp := summariesResponse{Version: version, Summaries: make([]summaryView, len(sums))}
	for i, sum := range sums {
		resp.Summaries[i] = summaryView{
			MonthSummary: sum,
			Formatted: formattedSummary{
				TotalIncomes:    core.FormatAmount(sum.TotalIncomes),
				TotalExpenses:   core.FormatAmount(sum.TotalExpenses),
				Balance:         core.FormatAmount(sum.Balance),
				PaidExpenses:    core.FormatAmount(sum.PaidExpenses),
				PendingExpenses: core.FormatAmount(sum.PendingExpenses),
			},
		}
	}
	s.summaryCache.Set(version, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateMonth(w http.ResponseWriter, r *http.Request) {
	var req monthRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.CreateMonth(r.Context(), sanitizeInput(req.Name)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.state())
}

func (s *Server) handleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	month, err := pathIndex(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteMonth(r.Context(), month); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleSelectMonth(w http.ResponseWriter, r *http.Request) {
	month, err := pathIndex(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.SelectMonth(r.Context(), month); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	month, err := pathIndex(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.AddExpense(r.Context(), month, sanitizeInput(req.Description), sanitizeInput(string(req.Amount))); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.state())
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	month, err := pathIndex(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req incomeRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.AddIncome(r.Context(), month, sanitizeInput(req.Source), sanitizeInput(string(req.Amount))); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.state())
}

func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	month, item, err := pathIndexes(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.RemoveExpense(r.Context(), month, item); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleRemoveIncome(w http.ResponseWriter, r *http.Request) {
	month, item, err := pathIndexes(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.RemoveIncome(r.Context(), month, item); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleToggleExpense(w http.ResponseWriter, r *http.Request) {
	month, item, err := pathIndexes(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.ToggleExpensePaid(r.Context(), month, item); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ledger.Export()
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = NewJSONResponse().
		Attachment(persistence.ExportFileName).
		Raw(doc).
		Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := readImportDocument(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.ledger.Import(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Ledger imported",
		applog.FieldMonths, n)
	writeJSON(w, http.StatusOK, importResponse{Imported: n, Version: s.ledger.Version()})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{codeRateLimited, "rate limit exceeded, retry later"}})
}
