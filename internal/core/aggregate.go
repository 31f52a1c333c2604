package core

import "github.com/shopspring/decimal"

// BudgetProgress is a budget together with what has been spent against it.
type BudgetProgress struct {
	Budget
	Spent Money `json:"spent"`
}

// Remaining is the limit minus what was spent; negative once overspent.
func (p BudgetProgress) Remaining() Money {
	return p.Amount.Sub(p.Spent)
}

// Percent is spent relative to the limit, rounded to two decimals.
func (p BudgetProgress) Percent() float64 {
	if !p.Amount.IsPositive() {
		return 0
	}
	f, _ := p.Spent.Div(p.Amount.Decimal).Shift(2).Round(2).Float64()
	return f
}

// DashboardSummary holds the headline figures of the dashboard.
type DashboardSummary struct {
	TotalBalance    Money   `json:"totalBalance"`
	MonthlyIncome   Money   `json:"monthlyIncome"`
	MonthlyExpenses Money   `json:"monthlyExpenses"`
	SavingsRate     float64 `json:"savingsRate"`
}

// ComputeBudgetProgress attaches to every budget the sum of absolute outflows
// in the same category. The result has the same order as budgets.
//
// expenses and budgets must belong to the same user. Inflows and zero
// amounts never count toward a budget.
func ComputeBudgetProgress(expenses []Expense, budgets []Budget) []BudgetProgress {
	spent := make(map[Category]decimal.Decimal, len(budgets))
	for _, e := range expenses {
		if !e.Amount.IsNegative() {
			continue
		}
		spent[e.Category] = spent[e.Category].Add(e.Amount.Decimal.Abs())
	}

	out := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, BudgetProgress{Budget: b, Spent: NewMoney(spent[b.Category])})
	}
	return out
}

// ComputeSummary totals income and expenses and derives the balance and the
// savings rate. The savings rate is 0 when there is no income.
func ComputeSummary(expenses []Expense) DashboardSummary {
	var income, outflow decimal.Decimal
	for _, e := range expenses {
		switch {
		case e.Amount.IsPositive():
			income = income.Add(e.Amount.Decimal)
		case e.Amount.IsNegative():
			outflow = outflow.Add(e.Amount.Decimal.Abs())
		}
	}

	balance := income.Sub(outflow)
	return DashboardSummary{
		TotalBalance:    NewMoney(balance),
		MonthlyIncome:   NewMoney(income),
		MonthlyExpenses: NewMoney(outflow),
		SavingsRate:     savingsRate(income, balance),
	}
}

func savingsRate(income, balance decimal.Decimal) float64 {
	if !income.IsPositive() {
		return 0
	}
	rate, _ := balance.DivRound(income, 8).Shift(2).Round(2).Float64()
	return rate
}
