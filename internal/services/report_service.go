package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/store"
)

// ReportService builds periodic spending reports.
type ReportService struct {
	repo      alertStore
	threshold float64
	opts      Options
}

func NewReportService(repo alertStore, threshold float64, opts Options) *ReportService {
	return &ReportService{repo: repo, threshold: threshold, opts: opts.withDefaults()}
}

// Build returns the report of the period window containing now.
func (s *ReportService) Build(ctx context.Context, userID string, period core.Period) (core.PeriodReport, error) {
	return s.buildAt(ctx, userID, period, s.opts.Now())
}

// BuildCompleted returns the report of the last period window that has
// fully elapsed.
func (s *ReportService) BuildCompleted(ctx context.Context, userID string, period core.Period) (core.PeriodReport, error) {
	at, err := core.PreviousWindowEnd(period, s.opts.Now())
	if err != nil {
		return core.PeriodReport{}, err
	}
	return s.buildAt(ctx, userID, period, at)
}

func (s *ReportService) buildAt(ctx context.Context, userID string, period core.Period, at time.Time) (core.PeriodReport, error) {
	if err := requireUser(userID); err != nil {
		return core.PeriodReport{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return core.PeriodReport{}, fmt.Errorf("list expenses: %w", err)
	}
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return core.PeriodReport{}, fmt.Errorf("list budgets: %w", err)
	}
	return core.BuildPeriodReport(userID, expenses, budgets, period, at, s.threshold)
}

// SendWeekly publishes the report of the last completed week for every user
// who kept weekly reports enabled and returns how many were sent.
func (s *ReportService) SendWeekly(ctx context.Context) (int, error) {
	users, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	sent := 0
	var errs []error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		settings, err := s.repo.GetSettings(ctx, u)
		if errors.Is(err, store.ErrNotFound) {
			settings = core.DefaultSettings(u)
		} else if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u, err))
			continue
		}
		if !settings.Notifications.WeeklyReport {
			continue
		}

		r, err := s.BuildCompleted(ctx, u, core.Weekly)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u, err))
			continue
		}
		s.opts.publish(ctx, amqp.NewReportEvent(r))
		sent++
	}
	s.opts.Logger.InfoContext(ctx, "Weekly reports sent", "count", sent, "users", len(users))
	return sent, errors.Join(errs...)
}
