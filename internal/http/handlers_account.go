package http

import (
	"net/http"

	"smartspend/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	goals, err := s.svc.Goals.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "failed to load goals")
		return
	}
	OK(w, goals)
}

// handleSaveGoal creates a goal, or updates it when an id is sent.
func (s *Server) handleSaveGoal(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	g := core.SavingsGoal{
		ID:     p.Get("id"),
		UserID: bodyUserID(p, r),
		Name:   p.Get("name"),
		Color:  p.Get("color"),
	}
	if g.UserID == "" {
		BadRequestError("userId is required").Write(w)
		return
	}
	var err error
	if g.Current, err = parseMoney(p.Get("current")); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if g.Target, err = parseMoney(p.Get("target")); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	status := http.StatusCreated
	if g.ID != "" {
		status = http.StatusOK
	}
	saved, err := s.svc.Goals.Save(r.Context(), g)
	if err != nil {
		s.writeError(w, r, err, "failed to save goal")
		return
	}
	NewJSONResponse().Status(status).Body(saved).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, err := requireQuery(r.URL.Query(), "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Goals.Delete(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err, "failed to delete goal")
		return
	}
	NoContent(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	st, err := s.svc.Settings.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "failed to load settings")
		return
	}
	OK(w, st)
}

// handleSaveSettings replaces the user's settings. Omitted fields keep their
// stored values.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	current, err := s.svc.Settings.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "failed to load settings")
		return
	}

	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	next := current
	if err := p.Decode(&next); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	next.UserID = userID

	saved, err := s.svc.Settings.Save(r.Context(), next)
	if err != nil {
		s.writeError(w, r, err, "failed to save settings")
		return
	}
	OK(w, saved)
}
