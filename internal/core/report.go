package core

import "time"

// PeriodReport summarises one user's activity over a period window.
type PeriodReport struct {
	UserID     string           `json:"userId"`
	Period     Period           `json:"period"`
	From       Date             `json:"from"`
	To         Date             `json:"to"` // inclusive
	Summary    DashboardSummary `json:"summary"`
	Categories []CategorySlice  `json:"categories"`
	Budgets    []BudgetProgress `json:"budgets"`
	Alerts     []BudgetAlert    `json:"alerts,omitempty"`
	Count      int              `json:"transactionCount"`
}

// BuildPeriodReport reports the window of period containing now. Budget
// progress follows each budget's own period, so a weekly report still shows
// monthly budgets against their month to date.
func BuildPeriodReport(userID string, expenses []Expense, budgets []Budget, period Period, now time.Time, threshold float64) (PeriodReport, error) {
	w, err := WindowFor(period)
	if err != nil {
		return PeriodReport{}, err
	}
	start, end := w.Bounds(now)

	inWindow, err := ExpensesInPeriod(expenses, period, now)
	if err != nil {
		return PeriodReport{}, err
	}
	progress, err := ComputePeriodProgress(expenses, budgets, now)
	if err != nil {
		return PeriodReport{}, err
	}

	return PeriodReport{
		UserID:     userID,
		Period:     period,
		From:       DateOf(start),
		To:         DateOf(end.AddDate(0, 0, -1)),
		Summary:    ComputeSummary(inWindow),
		Categories: CategoryBreakdown(inWindow),
		Budgets:    progress,
		Alerts:     CheckBudgetAlerts(progress, threshold),
		Count:      len(inWindow),
	}, nil
}
