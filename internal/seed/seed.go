// Package seed loads demo data into a store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"smartspend/internal/core"
	"smartspend/internal/store"
)

//go:embed demo.yaml
var demoYAML []byte

type (
	Dataset struct {
		Settings SettingsSpec  `yaml:"settings"`
		Expenses []ExpenseSpec `yaml:"expenses"`
		Budgets  []BudgetSpec  `yaml:"budgets"`
		Goals    []GoalSpec    `yaml:"goals"`
	}

	SettingsSpec struct {
		Name          string             `yaml:"name"`
		Email         string             `yaml:"email"`
		Currency      string             `yaml:"currency"`
		Notifications NotificationsSpec `yaml:"notifications"`
	}

	NotificationsSpec struct {
		Email             bool `yaml:"email"`
		Push              bool `yaml:"push"`
		WeeklyReport      bool `yaml:"weeklyReport"`
		BudgetAlerts      bool `yaml:"budgetAlerts"`
		SavingsGoalAlerts bool `yaml:"savingsGoalAlerts"`
	}

	ExpenseSpec struct {
		Description string  `yaml:"description"`
		Amount      float64 `yaml:"amount"`
		Category    string  `yaml:"category"`
		Day         int     `yaml:"day"` // day of the seeding month
	}

	BudgetSpec struct {
		Category string  `yaml:"category"`
		Amount   float64 `yaml:"amount"`
		Period   string  `yaml:"period"`
	}

	GoalSpec struct {
		Name    string  `yaml:"name"`
		Current float64 `yaml:"current"`
		Target  float64 `yaml:"target"`
		Color   string  `yaml:"color"`
	}

	// Target is the subset of a store the seeder writes to.
	Target interface {
		store.ExpenseRepository
		store.BudgetRepository
		store.GoalRepository
		store.SettingsRepository
	}

	Result struct {
		Expenses int
		Budgets  int
		Goals    int
		Skipped  bool // the user already had expenses
	}
)

// Demo returns the embedded demo dataset.
func Demo() (Dataset, error) {
	return Parse(demoYAML)
}

// Parse decodes a dataset. Unknown keys are rejected.
func Parse(b []byte) (Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}

// Build converts the dataset into validated records for userID, placing
// expenses in the month containing now.
func (ds Dataset) Build(userID string, now time.Time) ([]core.Expense, []core.Budget, []core.SavingsGoal, core.Settings, error) {
	now = now.UTC()
	settings := core.Settings{
		UserID:        userID,
		Name:          ds.Settings.Name,
		Email:         ds.Settings.Email,
		Currency:      core.Currency(ds.Settings.Currency),
		Notifications: core.Notifications(ds.Settings.Notifications),
	}
	if settings.Currency == "" {
		settings.Currency = core.USD
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, nil, core.Settings{}, fmt.Errorf("settings: %w", err)
	}

	expenses := make([]core.Expense, 0, len(ds.Expenses))
	for i, spec := range ds.Expenses {
		cat, err := core.ParseCategory(spec.Category)
		if err != nil {
			return nil, nil, nil, core.Settings{}, fmt.Errorf("expense %d: %w", i, err)
		}
		if spec.Day < 1 || spec.Day > 28 {
			return nil, nil, nil, core.Settings{}, fmt.Errorf("expense %d: %w: day %d must be 1-28", i, core.ErrInvalidDate, spec.Day)
		}
		e := core.Expense{
			UserID:      userID,
			Description: spec.Description,
			Amount:      core.MoneyFromFloat(spec.Amount),
			Category:    cat,
			Date:        core.NewDate(now.Year(), int(now.Month()), spec.Day),
		}
		if err := e.Validate(); err != nil {
			return nil, nil, nil, core.Settings{}, fmt.Errorf("expense %d: %w", i, err)
		}
		expenses = append(expenses, e)
	}

	budgets := make([]core.Budget, 0, len(ds.Budgets))
	for i, spec := range ds.Budgets {
		cat, err := core.ParseCategory(spec.Category)
		if err != nil {
			return nil, nil, nil, core.Settings{}, fmt.Errorf("budget %d: %w", i, err)
		}
		b := core.Budget{UserID: userID, Category: cat, Amount: core.MoneyFromFloat(spec.Amount), Period: core.Period(spec.Period)}
		if err := b.Validate(); err != nil {
			return nil, nil, nil, core.Settings{}, fmt.Errorf("budget %d: %w", i, err)
		}
		budgets = append(budgets, b)
	}

	goals := make([]core.SavingsGoal, 0, len(ds.Goals))
	for i, spec := range ds.Goals {
		g := core.SavingsGoal{
			UserID:  userID,
			Name:    spec.Name,
			Current: core.MoneyFromFloat(spec.Current),
			Target:  core.MoneyFromFloat(spec.Target),
			Color:   spec.Color,
		}
		if err := g.Validate(); err != nil {
			return nil, nil, nil, core.Settings{}, fmt.Errorf("goal %d: %w", i, err)
		}
		goals = append(goals, g)
	}
	return expenses, budgets, goals, settings, nil
}

// Load writes the dataset for userID. A user who already has expenses is
// left untouched.
func Load(ctx context.Context, t Target, userID string, ds Dataset, now time.Time) (Result, error) {
	if userID == "" {
		return Result{}, core.ErrEmptyUserID
	}
	existing, err := t.ListExpenses(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("list expenses: %w", err)
	}
	if len(existing) > 0 {
		return Result{Skipped: true}, nil
	}

	expenses, budgets, goals, settings, err := ds.Build(userID, now)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if err := t.SaveSettings(ctx, settings); err != nil {
		return res, fmt.Errorf("save settings: %w", err)
	}
	for _, e := range expenses {
		if _, err := t.CreateExpense(ctx, e); err != nil {
			return res, fmt.Errorf("create expense %q: %w", e.Description, err)
		}
		res.Expenses++
	}
	for _, b := range budgets {
		if _, err := t.UpsertBudget(ctx, b); err != nil {
			return res, fmt.Errorf("save budget %s: %w", b.Category, err)
		}
		res.Budgets++
	}
	for _, g := range goals {
		if _, err := t.SaveGoal(ctx, g); err != nil {
			return res, fmt.Errorf("save goal %q: %w", g.Name, err)
		}
		res.Goals++
	}
	return res, nil
}
