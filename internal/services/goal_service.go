package services

import (
	"context"
	"fmt"
	"strings"

	"smartspend/internal/core"
	"smartspend/internal/store"
)

// GoalService manages savings goals.
type GoalService struct {
	repo store.GoalRepository
	opts Options
}

func NewGoalService(repo store.GoalRepository, opts Options) *GoalService {
	return &GoalService{repo: repo, opts: opts.withDefaults()}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Save inserts g when it has no id and updates it otherwise.
func (s *GoalService) Save(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Color == "" {
		g.Color = core.Other.Info().Color
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	saved, err := s.repo.SaveGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("save goal: %w", err)
	}
	s.opts.Invalidator.Invalidate(saved.UserID)
	return saved, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	s.opts.Invalidator.Invalidate(userID)
	return nil
}
