package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"smartspend/internal/cache"
	"smartspend/internal/core"
	"smartspend/internal/store"
)

// DefaultAnalyticsMonths is the analytics window when none is requested.
const DefaultAnalyticsMonths = 6

// MaxAnalyticsMonths bounds the analytics window.
const MaxAnalyticsMonths = 24

// Dashboard is everything the dashboard page shows for one user.
type Dashboard struct {
	Summary            core.DashboardSummary `json:"summary"`
	RecentTransactions []core.Expense        `json:"recentTransactions"`
	ExpenseBreakdown   []core.CategorySlice  `json:"expenseBreakdown"`
	BudgetProgress     []core.BudgetProgress `json:"budgetProgress"`
	SavingsGoals       []core.SavingsGoal    `json:"savingsGoals"`
}

type dashboardStore interface {
	store.ExpenseRepository
	store.BudgetRepository
	store.GoalRepository
}

// DashboardService builds the read models behind the dashboard and analytics
// pages and caches them per user until the next write.
type DashboardService struct {
	repo      dashboardStore
	dashboard cache.Cache[Dashboard]
	analytics cache.Cache[core.Analytics]
	logger    *slog.Logger
	now       func() time.Time

	// generations counts invalidations per user. A read stores its result
	// only if no write invalidated the user while it was loading.
	mu          sync.Mutex
	generations map[string]uint64
}

var _ Invalidator = (*DashboardService)(nil)

func NewDashboardService(repo dashboardStore, dashboards cache.Cache[Dashboard], analytics cache.Cache[core.Analytics], logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		repo:      repo,
		dashboard: dashboards,
		analytics: analytics,
		logger:      logger,
		now:         time.Now,
		generations: make(map[string]uint64),
	}
}

func cacheKey(userID string, parts ...string) string {
	key := userID + ":"
	for _, p := range parts {
		key += p + ":"
	}
	return key
}

// Dashboard loads the user's expenses, budgets and goals concurrently and
// aggregates them.
func (s *DashboardService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	if err := requireUser(userID); err != nil {
		return Dashboard{}, err
	}
	key := cacheKey(userID, "dashboard")
	if s.dashboard != nil {
		if d, ok := s.dashboard.Get(key); ok {
			return d, nil
		}
	}

	gen := s.generation(userID)
	var (
		expenses []core.Expense
		budgets  []core.Budget
		goals    []core.SavingsGoal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = s.repo.ListExpenses(gctx, userID)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		budgets, err = s.repo.ListBudgets(gctx, userID)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		goals, err = s.repo.ListGoals(gctx, userID)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Summary:            core.ComputeSummary(expenses),
		RecentTransactions: core.RecentTransactions(expenses, core.DefaultRecentCount),
		ExpenseBreakdown:   core.CategoryBreakdown(expenses),
		BudgetProgress:     core.ComputeBudgetProgress(expenses, budgets),
		SavingsGoals:       goals,
	}
	if s.dashboard != nil {
		s.storeIfCurrent(userID, gen, func() { s.dashboard.Set(key, d) })
	}
	return d, nil
}

// Analytics returns the monthly, category and savings series for the
// trailing months. months outside 1..MaxAnalyticsMonths uses the default.
func (s *DashboardService) Analytics(ctx context.Context, userID string, months int) (core.Analytics, error) {
	if err := requireUser(userID); err != nil {
		return core.Analytics{}, err
	}
	if months < 1 || months > MaxAnalyticsMonths {
		months = DefaultAnalyticsMonths
	}
	key := cacheKey(userID, "analytics", strconv.Itoa(months))
	if s.analytics != nil {
		if a, ok := s.analytics.Get(key); ok {
			return a, nil
		}
	}

	gen := s.generation(userID)
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return core.Analytics{}, fmt.Errorf("list expenses: %w", err)
	}
	a := core.BuildAnalytics(expenses, s.now(), months)
	if s.analytics != nil {
		s.storeIfCurrent(userID, gen, func() { s.analytics.Set(key, a) })
	}
	return a, nil
}

// Invalidate drops every cached read model of userID.
func (s *DashboardService) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++

	prefix := cacheKey(userID)
	n := 0
	if s.dashboard != nil {
		n += s.dashboard.DeletePrefix(prefix)
	}
	if s.analytics != nil {
		n += s.analytics.DeletePrefix(prefix)
	}
	if n > 0 {
		s.logger.Debug("Invalidated cached read models", "user_id", userID, "entries", n)
	}
}

func (s *DashboardService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// storeIfCurrent runs set unless userID was invalidated after gen was read.
func (s *DashboardService) storeIfCurrent(userID string, gen uint64, set func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		s.logger.Debug("Skipped caching read model invalidated while loading", "user_id", userID)
		return
	}
	set()
}
