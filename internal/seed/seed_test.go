package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/store/memory"
)

var now = time.Date(2024, 4, 29, 12, 0, 0, 0, time.UTC)

func TestDemo_Parses(t *testing.T) {
	ds, err := Demo()
	if err != nil {
		t.Fatalf("Demo() error = %v", err)
	}
	if len(ds.Expenses) != 10 || len(ds.Budgets) != 5 || len(ds.Goals) != 3 {
		t.Fatalf("dataset sizes = %d/%d/%d", len(ds.Expenses), len(ds.Budgets), len(ds.Goals))
	}
	if !ds.Settings.Notifications.WeeklyReport || ds.Settings.Notifications.Push {
		t.Errorf("notifications = %+v", ds.Settings.Notifications)
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("expenses:\n  - { description: Rent, amount: -1, category: housing, day: 1, tip: 3 }\n")); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		ds   Dataset
		want error
	}{
		{"unknown category", Dataset{Expenses: []ExpenseSpec{{Description: "Rent", Amount: -1, Category: "pets", Day: 1}}}, core.ErrInvalidCategory},
		{"zero amount", Dataset{Expenses: []ExpenseSpec{{Description: "Rent", Amount: 0, Category: "housing", Day: 1}}}, core.ErrInvalidAmount},
		{"day out of range", Dataset{Expenses: []ExpenseSpec{{Description: "Rent", Amount: -1, Category: "housing", Day: 31}}}, core.ErrInvalidDate},
		{"bad period", Dataset{Budgets: []BudgetSpec{{Category: "food", Amount: 10, Period: "daily"}}}, core.ErrInvalidPeriod},
		{"bad currency", Dataset{Settings: SettingsSpec{Currency: "btc"}}, core.ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, _, err := tt.ds.Build("u1", now)
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad_DemoIntoStore(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	ds, err := Demo()
	if err != nil {
		t.Fatal(err)
	}

	res, err := Load(ctx, st, "demo", ds, now)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Skipped || res.Expenses != 10 || res.Budgets != 5 || res.Goals != 3 {
		t.Fatalf("Load() = %+v", res)
	}

	expenses, _ := st.ListExpenses(ctx, "demo")
	budgets, _ := st.ListBudgets(ctx, "demo")
	progress := core.ComputeBudgetProgress(expenses, budgets)
	for _, p := range progress {
		if p.Category == core.Food && p.Spent.String() != "184.80" {
			t.Errorf("food spent = %s, want 184.80", p.Spent)
		}
	}
	for _, e := range expenses {
		if e.Date.Month() != time.April || e.Date.Year() != 2024 {
			t.Errorf("expense %q dated %s, want April 2024", e.Description, e.Date)
		}
	}

	settings, err := st.GetSettings(ctx, "demo")
	if err != nil || settings.Email != "demo@example.com" || settings.Currency != core.USD {
		t.Errorf("settings = %+v, %v", settings, err)
	}

	again, err := Load(ctx, st, "demo", ds, now)
	if err != nil || !again.Skipped {
		t.Errorf("second Load() = %+v, %v; want skipped", again, err)
	}
}

func TestLoad_EmptyUser(t *testing.T) {
	if _, err := Load(context.Background(), memory.New(), "", Dataset{}, now); !errors.Is(err, core.ErrEmptyUserID) {
		t.Errorf("Load() error = %v, want ErrEmptyUserID", err)
	}
}

func TestRandom(t *testing.T) {
	opts := RandomOptions{Months: 3, PerMonth: 4, Seed: 42}
	a := Random("u1", now, opts)
	b := Random("u1", now, opts)

	if len(a) != 3*5 {
		t.Fatalf("got %d expenses, want 15", len(a))
	}
	earliest := core.NewDate(2024, 2, 1)
	for i, e := range a {
		if err := e.Validate(); err != nil {
			t.Errorf("expense %d invalid: %v", i, err)
		}
		if e.Date.Before(earliest.Time) || e.Date.After(now) {
			t.Errorf("expense %d dated %s outside Feb..Apr 29", i, e.Date)
		}
		if e.Description != b[i].Description || !e.Amount.Equal(b[i].Amount) {
			t.Errorf("expense %d differs between runs with the same seed", i)
		}
	}

	summary := core.ComputeSummary(a)
	if !summary.MonthlyIncome.Equal(core.MoneyFromFloat(3 * 3500)) {
		t.Errorf("income = %s, want 10500.00", summary.MonthlyIncome)
	}
}
