package http

import (
	"net/http"

	"smartspend/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	expenses, err := s.svc.Expenses.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "failed to load expenses")
		return
	}
	OK(w, expenses)
}

// handleCreateExpense accepts {description, amount, category, date, userId}
// as JSON or form data. A missing date means today.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	e := core.Expense{
		UserID:      bodyUserID(p, r),
		Description: p.Get("description"),
		Category:    core.Category(p.Get("category")),
	}
	if e.UserID == "" {
		BadRequestError("userId is required").Write(w)
		return
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		BadRequestError("invalid amount: must be a non-zero number").Write(w)
		return
	}
	e.Amount = amount

	if raw := p.Get("date"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		e.Date = d
	} else {
		e.Date = core.DateOf(s.opts.Now())
	}

	created, err := s.svc.Expenses.Create(r.Context(), e)
	if err != nil {
		s.writeError(w, r, err, "failed to save expense")
		return
	}
	Created(w, created)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, err := requireQuery(r.URL.Query(), "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Expenses.Delete(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err, "failed to delete expense")
		return
	}
	NoContent(w)
}
