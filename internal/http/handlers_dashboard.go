package http

import (
	"bytes"
	"net/http"
	"strconv"

	"smartspend/internal/core"
	"smartspend/internal/export"
	"smartspend/internal/services"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Dashboard.Dashboard(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "failed to load")
		return
	}
	OK(w, d)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	months, err := ParseIntParam(r.URL.Query(), "months", services.DefaultAnalyticsMonths)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	a, err := s.svc.Dashboard.Analytics(r.Context(), userID, months)
	if err != nil {
		s.writeError(w, r, err, "failed to load")
		return
	}
	OK(w, a)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Header("Cache-Control", "public, max-age=3600").
		Body(core.Categories()).
		Write(w)
}

// handleExport streams the user's expenses as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	expenses, err := s.svc.Expenses.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "failed to load expenses")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, expenses); err != nil {
		s.writeError(w, r, err, "failed to export expenses")
		return
	}
	s.logger.InfoContext(r.Context(), "Expenses exported",
		"user_id", userID,
		"format", format,
		"count", len(expenses))

	NewJSONResponse().
		Header("Content-Type", format.ContentType()).
		Header("Content-Disposition", `attachment; filename="`+format.FileName(s.opts.Now())+`"`).
		Header("Content-Length", strconv.Itoa(buf.Len())).
		Raw(buf.Bytes()).
		Write(w)
}
