// Package store defines the persistence ports used by the services.
//
// Every method takes the owning user id explicitly; implementations never
// return or mutate records belonging to a different user.
package store

import (
	"context"
	"errors"

	"smartspend/internal/core"
)

var (
	// ErrNotFound is returned when a record does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniqueness constraint would be violated.
	ErrDuplicate = errors.New("duplicate record")
)

// Ports for outbound adapters.
type (
	ExpenseRepository interface {
		// CreateExpense assigns an id and creation time and returns the stored record.
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		// ListExpenses returns the user's expenses, newest first.
		ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
		GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
		DeleteExpense(ctx context.Context, userID, id string) error
	}

	BudgetRepository interface {
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		// UpsertBudget creates the budget or replaces the user's budget for the
		// same category, keeping its id.
		UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id string) error
	}

	GoalRepository interface {
		ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
		// SaveGoal inserts when g.ID is empty and updates otherwise.
		SaveGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	SettingsRepository interface {
		// GetSettings returns ErrNotFound when the user never saved settings.
		GetSettings(ctx context.Context, userID string) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) error
	}

	// UserLister enumerates users owning any data, for scheduled jobs.
	UserLister interface {
		ListUserIDs(ctx context.Context) ([]string, error)
	}

	// Store is the full persistence surface a backend provides.
	Store interface {
		ExpenseRepository
		BudgetRepository
		GoalRepository
		SettingsRepository
		UserLister
		Ping(ctx context.Context) error
		Close() error
	}
)
