package core

import (
	"testing"
	"time"
)

func sampleExpenses() []Expense {
	return []Expense{
		{ID: "1", Description: "Rent", Amount: MoneyFromCents(-120000), Category: Housing, Date: NewDate(2023, 4, 1)},
		{ID: "2", Description: "Salary", Amount: MoneyFromCents(350000), Category: Income, Date: NewDate(2023, 4, 5)},
		{ID: "3", Description: "Grocery Shopping", Amount: MoneyFromCents(-12050), Category: Food, Date: NewDate(2023, 4, 10)},
		{ID: "4", Description: "Electric Bill", Amount: MoneyFromCents(-8520), Category: Utilities, Date: NewDate(2023, 4, 15)},
		{ID: "5", Description: "Internet", Amount: MoneyFromCents(-6599), Category: Utilities, Date: NewDate(2023, 4, 15)},
		{ID: "6", Description: "Restaurant", Amount: MoneyFromCents(-6430), Category: Food, Date: NewDate(2023, 4, 18)},
		{ID: "7", Description: "Gas", Amount: MoneyFromCents(-4500), Category: Transport, Date: NewDate(2023, 3, 20)},
	}
}

func TestMonthlySeries(t *testing.T) {
	now := time.Date(2023, 4, 28, 0, 0, 0, 0, time.UTC)
	got := MonthlySeries(sampleExpenses(), now, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	names := []string{"Feb", "Mar", "Apr"}
	for i, n := range names {
		if got[i].Name != n {
			t.Errorf("point %d: name = %s, want %s", i, got[i].Name, n)
		}
	}
	if !got[0].Income.IsZero() || !got[0].Expenses.IsZero() {
		t.Errorf("February should be empty: %+v", got[0])
	}
	if got[1].Expenses.Cents() != 4500 {
		t.Errorf("March expenses = %s", got[1].Expenses)
	}
	if got[2].Income.Cents() != 350000 || got[2].Expenses.Cents() != 153599 {
		t.Errorf("April = %s / %s", got[2].Income, got[2].Expenses)
	}

	savings := SavingsSeries(got)
	if savings[2].Amount.Cents() != 196401 || savings[1].Amount.Cents() != -4500 {
		t.Errorf("unexpected savings %+v", savings)
	}
}

func TestMonthlySeries_AcrossYearBoundary(t *testing.T) {
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	got := MonthlySeries([]Expense{{Amount: MoneyFromCents(-100), Date: NewDate(2023, 12, 24)}}, now, 2)
	if got[0].Name != "Dec" || got[0].Year != 2023 || got[0].Expenses.Cents() != 100 {
		t.Fatalf("unexpected first point %+v", got[0])
	}
	if got := MonthlySeries(nil, now, 0); len(got) != 0 {
		t.Fatalf("expected empty series")
	}
}

func TestCategoryBreakdown(t *testing.T) {
	got := CategoryBreakdown(sampleExpenses())
	want := []struct {
		name  string
		cents int64
	}{
		{"Housing", 120000},
		{"Food", 18480},
		{"Utilities", 15119},
		{"Transport", 4500},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d slices, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Value.Cents() != w.cents {
			t.Errorf("slice %d = %s %s, want %s %d", i, got[i].Name, got[i].Value, w.name, w.cents)
		}
		if got[i].Color == "" {
			t.Errorf("slice %d has no colour", i)
		}
	}
}

func TestRecentTransactions(t *testing.T) {
	expenses := sampleExpenses()
	got := RecentTransactions(expenses, DefaultRecentCount)
	if len(got) != 5 {
		t.Fatalf("expected 5, got %d", len(got))
	}
	wantIDs := []string{"6", "5", "4", "3", "2"}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: id = %s, want %s", i, got[i].ID, id)
		}
	}
	if expenses[0].ID != "1" {
		t.Fatalf("input must not be reordered")
	}
	if got := RecentTransactions(expenses[:2], 5); len(got) != 2 {
		t.Fatalf("expected all expenses when fewer than n")
	}
}

func TestCheckBudgetAlerts(t *testing.T) {
	progress := []BudgetProgress{
		{Budget: Budget{ID: "a", Category: Food, Amount: MoneyFromCents(50000), Period: Monthly}, Spent: MoneyFromCents(18480)},
		{Budget: Budget{ID: "b", Category: Utilities, Amount: MoneyFromCents(15000), Period: Monthly}, Spent: MoneyFromCents(15119)},
		{Budget: Budget{ID: "c", Category: Housing, Amount: MoneyFromCents(130000), Period: Monthly}, Spent: MoneyFromCents(120000)},
		{Budget: Budget{ID: "d", Category: Transport, Amount: MoneyFromCents(10000), Period: Weekly}, Spent: MoneyFromCents(10000)},
	}

	alerts := CheckBudgetAlerts(progress, 80)
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d: %+v", len(alerts), alerts)
	}
	want := []struct {
		id    string
		level AlertLevel
	}{
		{"b", AlertExceeded},
		{"c", AlertWarning},
		{"d", AlertWarning},
	}
	for i, w := range want {
		if alerts[i].BudgetID != w.id || alerts[i].Level != w.level {
			t.Errorf("alert %d = %s/%s, want %s/%s", i, alerts[i].BudgetID, alerts[i].Level, w.id, w.level)
		}
		if alerts[i].Message() == "" {
			t.Errorf("alert %d has no message", i)
		}
	}
}
