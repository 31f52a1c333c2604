// Package storetest holds behaviour checks shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"smartspend/internal/core"
	"smartspend/internal/store"
)

// Run exercises s against the contract described in package store.
// s must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("expenses", func(t *testing.T) { testExpenses(ctx, t, s) })
	t.Run("budgets", func(t *testing.T) { testBudgets(ctx, t, s) })
	t.Run("goals", func(t *testing.T) { testGoals(ctx, t, s) })
	t.Run("settings", func(t *testing.T) { testSettings(ctx, t, s) })
	t.Run("users", func(t *testing.T) { testUsers(ctx, t, s) })

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func testExpenses(ctx context.Context, t *testing.T, s store.Store) {
	seed := []core.Expense{
		{Description: "Rent", Amount: core.MoneyFromCents(-120000), Category: core.Housing, Date: core.NewDate(2023, 4, 1), UserID: "alice"},
		{Description: "Salary", Amount: core.MoneyFromCents(350000), Category: core.Income, Date: core.NewDate(2023, 4, 5), UserID: "alice"},
		{Description: "Grocery Shopping", Amount: core.MoneyFromCents(-12050), Category: core.Food, Date: core.NewDate(2023, 4, 10), UserID: "alice"},
		{Description: "Gas", Amount: core.MoneyFromCents(-4500), Category: core.Transport, Date: core.NewDate(2023, 4, 20), UserID: "bob"},
	}
	var created []core.Expense
	for _, e := range seed {
		got, err := s.CreateExpense(ctx, e)
		if err != nil {
			t.Fatalf("create %q: %v", e.Description, err)
		}
		if got.ID == "" || got.CreatedAt.IsZero() {
			t.Fatalf("create must assign id and createdAt: %+v", got)
		}
		created = append(created, got)
	}

	list, err := s.ListExpenses(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("alice should see 3 expenses, got %d", len(list))
	}
	if list[0].Description != "Grocery Shopping" || list[2].Description != "Rent" {
		t.Fatalf("expected newest first, got %s..%s", list[0].Description, list[2].Description)
	}
	if list[0].Amount.Cents() != -12050 || list[0].Category != core.Food || list[0].Date.String() != "2023-04-10" {
		t.Fatalf("fields not preserved: %+v", list[0])
	}

	got, err := s.GetExpense(ctx, "alice", created[0].ID)
	if err != nil || got.Description != "Rent" {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := s.GetExpense(ctx, "bob", created[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("other users must not see the expense, got %v", err)
	}

	if err := s.DeleteExpense(ctx, "bob", created[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("other users must not delete the expense, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "alice", created[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteExpense(ctx, "alice", created[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
	list, _ = s.ListExpenses(ctx, "alice")
	if len(list) != 2 {
		t.Fatalf("expected 2 expenses after delete, got %d", len(list))
	}
	if empty, _ := s.ListExpenses(ctx, "nobody"); len(empty) != 0 {
		t.Fatalf("unknown user should have no expenses")
	}
}

func testBudgets(ctx context.Context, t *testing.T, s store.Store) {
	food, err := s.UpsertBudget(ctx, core.Budget{Category: core.Food, Amount: core.MoneyFromCents(50000), Period: core.Monthly, UserID: "alice"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.UpsertBudget(ctx, core.Budget{Category: core.Housing, Amount: core.MoneyFromCents(130000), Period: core.Monthly, UserID: "alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	again, err := s.UpsertBudget(ctx, core.Budget{Category: core.Food, Amount: core.MoneyFromCents(60000), Period: core.Weekly, UserID: "alice"})
	if err != nil {
		t.Fatalf("upsert existing: %v", err)
	}
	if again.ID != food.ID {
		t.Fatalf("upsert must keep the id of the (user, category) budget: %s != %s", again.ID, food.ID)
	}
	if _, err := s.UpsertBudget(ctx, core.Budget{Category: core.Food, Amount: core.MoneyFromCents(100), Period: core.Monthly, UserID: "bob"}); err != nil {
		t.Fatalf("same category for another user: %v", err)
	}

	list, err := s.ListBudgets(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected one budget per category, got %d", len(list))
	}
	var found bool
	for _, b := range list {
		if b.Category == core.Food {
			found = true
			if b.Amount.Cents() != 60000 || b.Period != core.Weekly {
				t.Fatalf("upsert did not replace values: %+v", b)
			}
		}
	}
	if !found {
		t.Fatalf("food budget missing")
	}

	if err := s.DeleteBudget(ctx, "alice", food.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteBudget(ctx, "alice", food.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testGoals(ctx context.Context, t *testing.T, s store.Store) {
	g, err := s.SaveGoal(ctx, core.SavingsGoal{Name: "Vacation", Current: core.MoneyFromCents(120000), Target: core.MoneyFromCents(300000), Color: "bg-blue-500", UserID: "alice"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if g.ID == "" {
		t.Fatalf("save must assign an id")
	}
	g.Current = core.MoneyFromCents(150000)
	if _, err := s.SaveGoal(ctx, g); err != nil {
		t.Fatalf("update: %v", err)
	}
	goals, err := s.ListGoals(ctx, "alice")
	if err != nil || len(goals) != 1 || goals[0].Current.Cents() != 150000 {
		t.Fatalf("list after update: %+v %v", goals, err)
	}

	other := g
	other.UserID = "bob"
	if _, err := s.SaveGoal(ctx, other); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("updating another user's goal should be ErrNotFound, got %v", err)
	}
	if err := s.DeleteGoal(ctx, "alice", g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if goals, _ := s.ListGoals(ctx, "alice"); len(goals) != 0 {
		t.Fatalf("expected no goals after delete")
	}
}

func testSettings(ctx context.Context, t *testing.T, s store.Store) {
	if _, err := s.GetSettings(ctx, "carol"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	st := core.DefaultSettings("carol")
	st.Name = "Carol"
	st.Email = "carol@example.com"
	st.Currency = core.EUR
	st.Notifications.Push = true
	if err := s.SaveSettings(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}
	st.Currency = core.GBP
	if err := s.SaveSettings(ctx, st); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, err := s.GetSettings(ctx, "carol")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != st {
		t.Fatalf("got %+v, want %+v", got, st)
	}
}

func testUsers(ctx context.Context, t *testing.T, s store.Store) {
	ids, err := s.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	want := map[string]bool{"alice": true, "bob": true, "carol": true}
	for _, id := range ids {
		delete(want, id)
	}
	if len(want) != 0 {
		t.Fatalf("missing users %v in %v", want, ids)
	}
}
