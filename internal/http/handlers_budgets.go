package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseBudgetFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	budgets, err := s.records.ListBudgets(r.Context(), caller(r).ID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(budgets)).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.records.GetBudget(r.Context(), caller(r).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

// handleSaveBudget upserts on (category, month, year): 201 for a new row,
// 200 when an existing budget's amount was replaced.
func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var in core.BudgetInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, created, err := s.records.SaveBudget(r.Context(), caller(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	NewJSONResponse().Status(status).Body(b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in core.BudgetUpdate
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.records.UpdateBudget(r.Context(), caller(r).ID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.records.DeleteBudget(r.Context(), caller(r).ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	SuccessResponse().Write(w)
}
