// Package memory is an in-process Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartspend/internal/core"
	"smartspend/internal/store"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	expenses []core.Expense
	budgets  []core.Budget
	goals    []core.SavingsGoal
	settings map[string]core.Settings
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now, settings: map[string]core.Settings{}}
}

// CreateExpense stores the expense under a fresh id.
func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	core.SortNewestFirst(out)
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			return e, nil
		}
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// ListBudgets returns budgets in insertion order.
func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.Category == b.Category {
			b.ID = existing.ID
			s.budgets[i] = b
			return b, nil
		}
	}
	b.ID = uuid.NewString()
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SavingsGoal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) SaveGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
		s.goals = append(s.goals, g)
		return g, nil
	}
	for i, existing := range s.goals {
		if existing.ID == g.ID && existing.UserID == g.UserID {
			s.goals[i] = g
			return g, nil
		}
	}
	return core.SavingsGoal{}, store.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id && g.UserID == userID {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return core.Settings{}, store.ErrNotFound
	}
	return st, nil
}

func (s *Store) SaveSettings(_ context.Context, st core.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.UserID] = st
	return nil
}

// ListUserIDs returns every user owning at least one record, sorted.
func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	for _, e := range s.expenses {
		seen[e.UserID] = struct{}{}
	}
	for _, b := range s.budgets {
		seen[b.UserID] = struct{}{}
	}
	for _, g := range s.goals {
		seen[g.UserID] = struct{}{}
	}
	for id := range s.settings {
		seen[id] = struct{}{}
	}
	return dedupeSorted(seen), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func dedupeSorted(seen map[string]struct{}) []string {
	out := make([]string, 0, len(seen))
	for v := range seen {
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
