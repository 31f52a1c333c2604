package memory

import (
	"context"
	"errors"
	"testing"

	"smartspend/internal/core"
	"smartspend/internal/store/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, New())
}

func TestMemoryStoreRejectsInvalidRecords(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateExpense(ctx, core.Expense{Description: "x", UserID: "u1"})
	if err == nil || !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = s.UpsertBudget(ctx, core.Budget{Category: core.Food, Period: core.Monthly, UserID: "u1"})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if ids, _ := s.ListUserIDs(ctx); len(ids) != 0 {
		t.Fatalf("rejected records must not be stored, users=%v", ids)
	}
}
