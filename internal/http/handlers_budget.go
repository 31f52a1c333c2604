package http

import (
	"net/http"

	"smartspend/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	budgets, err := s.svc.Budgets.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "failed to load budgets")
		return
	}
	OK(w, budgets)
}

// handleSaveBudget upserts the user's budget for the posted category.
func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	b := core.Budget{
		UserID:   bodyUserID(p, r),
		Category: core.Category(p.Get("category")),
		Period:   core.Period(p.Get("period")),
	}
	if b.UserID == "" {
		BadRequestError("userId is required").Write(w)
		return
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		BadRequestError("invalid amount: must be a positive number").Write(w)
		return
	}
	b.Amount = amount

	saved, err := s.svc.Budgets.Save(r.Context(), b)
	if err != nil {
		s.writeError(w, r, err, "failed to save budget")
		return
	}
	OK(w, saved)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, err := requireQuery(r.URL.Query(), "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err, "failed to delete budget")
		return
	}
	NoContent(w)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	progress, err := s.svc.Budgets.Progress(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "failed to load")
		return
	}
	OK(w, progress)
}
