package services

import (
	"context"
	"fmt"
	"strings"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/store"
)

// SpendingSource is the data a budget computation needs for one user.
type SpendingSource interface {
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
}

// BudgetProgressFor loads the user's expenses and budgets from src and runs
// the aggregator over them.
func BudgetProgressFor(ctx context.Context, src SpendingSource, userID string) ([]core.BudgetProgress, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	expenses, err := src.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	budgets, err := src.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return core.ComputeBudgetProgress(expenses, budgets), nil
}

// SummaryFor loads the user's expenses from src and summarises them.
func SummaryFor(ctx context.Context, src store.ExpenseRepository, userID string) (core.DashboardSummary, error) {
	if err := requireUser(userID); err != nil {
		return core.DashboardSummary{}, err
	}
	expenses, err := src.ListExpenses(ctx, userID)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.ComputeSummary(expenses), nil
}

type budgetStore interface {
	store.BudgetRepository
	store.ExpenseRepository
}

// BudgetService manages category budgets.
type BudgetService struct {
	repo budgetStore
	opts Options
}

func NewBudgetService(repo budgetStore, opts Options) *BudgetService {
	return &BudgetService{repo: repo, opts: opts.withDefaults()}
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Save creates the user's budget for b.Category or replaces the existing one.
func (s *BudgetService) Save(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.Category = core.Category(strings.ToLower(strings.TrimSpace(string(b.Category))))
	if b.Period == "" {
		b.Period = core.Monthly
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.repo.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	s.opts.Invalidator.Invalidate(saved.UserID)
	s.opts.publish(ctx, amqp.NewBudgetEvent(amqp.BudgetSaved, saved))
	s.opts.Logger.InfoContext(ctx, "Budget saved",
		"user_id", saved.UserID,
		"record_id", saved.ID,
		"category", saved.Category,
		"period", saved.Period)
	return saved, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	var existing *core.Budget
	for i := range budgets {
		if budgets[i].ID == id {
			existing = &budgets[i]
			break
		}
	}
	if existing == nil {
		return fmt.Errorf("delete budget %s: %w", id, store.ErrNotFound)
	}
	if err := s.repo.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}

	s.opts.Invalidator.Invalidate(userID)
	s.opts.publish(ctx, amqp.NewBudgetEvent(amqp.BudgetDeleted, *existing))
	return nil
}

// Progress is BudgetProgressFor over this service's store.
func (s *BudgetService) Progress(ctx context.Context, userID string) ([]core.BudgetProgress, error) {
	return BudgetProgressFor(ctx, s.repo, userID)
}
