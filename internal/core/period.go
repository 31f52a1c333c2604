// This file implements the Strategy Pattern for budget period windows.
// Each period (weekly, monthly, yearly) has its own strategy that knows
// where the current window starts and ends.

package core

import (
	"fmt"
	"time"
)

// PeriodWindow is the strategy interface for locating the budget window
// that contains a given instant.
type PeriodWindow interface {
	// Bounds returns the half-open interval [start, end) containing now.
	Bounds(now time.Time) (start, end time.Time)
}

// WeeklyWindow spans Monday 00:00 to the following Monday.
type WeeklyWindow struct{}

func (WeeklyWindow) Bounds(now time.Time) (time.Time, time.Time) {
	day := DateOf(now).Time
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// MonthlyWindow spans the calendar month.
type MonthlyWindow struct{}

func (MonthlyWindow) Bounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// YearlyWindow spans the calendar year.
type YearlyWindow struct{}

func (YearlyWindow) Bounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

var periodWindows = map[Period]PeriodWindow{
	Weekly:  WeeklyWindow{},
	Monthly: MonthlyWindow{},
	Yearly:  YearlyWindow{},
}

// PreviousWindowEnd returns the last instant of the window before the one
// containing now. Reports of that instant cover the last completed period.
func PreviousWindowEnd(p Period, now time.Time) (time.Time, error) {
	w, err := WindowFor(p)
	if err != nil {
		return time.Time{}, err
	}
	start, _ := w.Bounds(now)
	return start.Add(-time.Nanosecond), nil
}

// WindowFor returns the window strategy for a budget period.
func WindowFor(p Period) (PeriodWindow, error) {
	w, ok := periodWindows[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
	}
	return w, nil
}

// ExpensesInPeriod keeps the expenses dated inside the window of p around now.
func ExpensesInPeriod(expenses []Expense, p Period, now time.Time) ([]Expense, error) {
	w, err := WindowFor(p)
	if err != nil {
		return nil, err
	}
	start, end := w.Bounds(now)
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if !e.Date.Before(start) && e.Date.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ComputePeriodProgress is ComputeBudgetProgress restricted, per budget, to
// the expenses of that budget's current period.
func ComputePeriodProgress(expenses []Expense, budgets []Budget, now time.Time) ([]BudgetProgress, error) {
	out := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		inPeriod, err := ExpensesInPeriod(expenses, b.Period, now)
		if err != nil {
			return nil, fmt.Errorf("budget %s: %w", b.ID, err)
		}
		out = append(out, ComputeBudgetProgress(inPeriod, []Budget{b})...)
	}
	return out, nil
}
