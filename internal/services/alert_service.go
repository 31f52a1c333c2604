package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/store"
)

type alertStore interface {
	store.ExpenseRepository
	store.BudgetRepository
	store.SettingsRepository
	store.UserLister
}

// AlertService raises budget alerts for the current period of each budget.
// An alert of a given level is published once per budget and period window.
type AlertService struct {
	repo      alertStore
	threshold float64
	opts      Options

	// sent maps an alert key to the end of the window it was raised in.
	mu   sync.Mutex
	sent map[string]time.Time
}

func NewAlertService(repo alertStore, threshold float64, opts Options) *AlertService {
	if threshold <= 0 {
		threshold = core.DefaultAlertThreshold
	}
	return &AlertService{
		repo:      repo,
		threshold: threshold,
		opts:      opts.withDefaults(),
		sent:      make(map[string]time.Time),
	}
}

// Check computes the user's alerts without publishing them.
func (s *AlertService) Check(ctx context.Context, userID string) ([]core.BudgetAlert, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	progress, err := core.ComputePeriodProgress(expenses, budgets, s.opts.Now())
	if err != nil {
		return nil, err
	}
	return core.CheckBudgetAlerts(progress, s.threshold), nil
}

// Notify publishes the user's new alerts when the user enabled budget alerts
// and returns the alerts that were published.
func (s *AlertService) Notify(ctx context.Context, userID string) ([]core.BudgetAlert, error) {
	settings, err := s.repo.GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		settings = core.DefaultSettings(userID)
	} else if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if !settings.Notifications.BudgetAlerts {
		return nil, nil
	}

	alerts, err := s.Check(ctx, userID)
	if err != nil {
		return nil, err
	}

	var fresh []core.BudgetAlert
	for _, a := range alerts {
		if !s.markSent(a) {
			continue
		}
		fresh = append(fresh, a)
		s.opts.publish(ctx, amqp.NewAlertEvent(a))
		s.opts.Logger.InfoContext(ctx, "Budget alert raised",
			"user_id", a.UserID,
			"category", a.Category,
			"level", a.Level,
			"percent", a.Percent)
	}
	return fresh, nil
}

// Sweep runs Notify for every known user. One user's failure does not stop
// the others; the joined errors are returned.
func (s *AlertService) Sweep(ctx context.Context) (int, error) {
	s.pruneSent(s.opts.Now())
	users, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	total := 0
	var errs []error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		alerts, err := s.Notify(ctx, u)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u, err))
			continue
		}
		total += len(alerts)
	}
	return total, errors.Join(errs...)
}

func (s *AlertService) markSent(a core.BudgetAlert) bool {
	w, err := core.WindowFor(a.Period)
	if err != nil {
		return false
	}
	start, end := w.Bounds(s.opts.Now())
	key := fmt.Sprintf("%s|%s|%s|%s", a.UserID, a.BudgetID, a.Level, start.Format("2006-01-02"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sent[key]; ok {
		return false
	}
	s.sent[key] = end
	return true
}

// pruneSent forgets alerts whose window closed before now.
func (s *AlertService) pruneSent(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, end := range s.sent {
		if !now.Before(end) {
			delete(s.sent, key)
		}
	}
}

func (s *AlertService) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
