package services

import (
	"context"
	"fmt"
	"strings"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/store"
)

// ExpenseService validates and stores expenses, then announces the change.
type ExpenseService struct {
	repo store.ExpenseRepository
	opts Options
}

func NewExpenseService(repo store.ExpenseRepository, opts Options) *ExpenseService {
	return &ExpenseService{repo: repo, opts: opts.withDefaults()}
}

func (s *ExpenseService) List(ctx context.Context, userID string) ([]core.Expense, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Create stores e for its user. Validation errors are returned unwrapped so
// callers can map them with core.IsValidationError.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = core.Category(strings.ToLower(strings.TrimSpace(string(e.Category))))
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.opts.Invalidator.Invalidate(created.UserID)
	s.opts.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseCreated, created))
	s.opts.Logger.InfoContext(ctx, "Expense created",
		"user_id", created.UserID,
		"record_id", created.ID,
		"category", created.Category,
		"amount", created.Amount.String())
	return created, nil
}

// Delete removes one of the user's expenses; store.ErrNotFound when it does
// not exist for that user.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	existing, err := s.repo.GetExpense(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("get expense %s: %w", id, err)
	}
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}

	s.opts.Invalidator.Invalidate(userID)
	s.opts.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseDeleted, existing))
	s.opts.Logger.InfoContext(ctx, "Expense deleted", "user_id", userID, "record_id", id)
	return nil
}
