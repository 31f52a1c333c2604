package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRecentCount is how many transactions the dashboard lists.
const DefaultRecentCount = 5

type (
	MonthlyPoint struct {
		Name     string `json:"name"`
		Year     int    `json:"year"`
		Month    int    `json:"month"`
		Income   Money  `json:"income"`
		Expenses Money  `json:"expenses"`
	}

	SavingsPoint struct {
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
	}

	CategorySlice struct {
		Name     string   `json:"name"`
		Category Category `json:"category"`
		Value    Money    `json:"value"`
		Color    string   `json:"color"`
	}

	// Analytics is the payload behind the analytics page.
	Analytics struct {
		MonthlyData  []MonthlyPoint  `json:"monthlyData"`
		CategoryData []CategorySlice `json:"categoryData"`
		SavingsData  []SavingsPoint  `json:"savingsData"`
	}
)

// MonthlySeries returns income and outflow totals for the trailing months
// calendar months ending with the month of now, oldest first.
func MonthlySeries(expenses []Expense, now time.Time, months int) []MonthlyPoint {
	if months <= 0 {
		return []MonthlyPoint{}
	}
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	points := make([]MonthlyPoint, months)
	index := make(map[int]int, months)
	for i := range points {
		m := first.AddDate(0, i, 0)
		points[i] = MonthlyPoint{Name: m.Month().String()[:3], Year: m.Year(), Month: int(m.Month())}
		index[m.Year()*12+int(m.Month())] = i
	}

	for _, e := range expenses {
		i, ok := index[e.Date.Year()*12+int(e.Date.Month())]
		if !ok {
			continue
		}
		switch {
		case e.Amount.IsPositive():
			points[i].Income = points[i].Income.Add(e.Amount)
		case e.Amount.IsNegative():
			points[i].Expenses = points[i].Expenses.Add(e.Amount.Abs())
		}
	}
	return points
}

// SavingsSeries derives the monthly net savings from a monthly series.
func SavingsSeries(monthly []MonthlyPoint) []SavingsPoint {
	out := make([]SavingsPoint, 0, len(monthly))
	for _, p := range monthly {
		out = append(out, SavingsPoint{Name: p.Name, Amount: p.Income.Sub(p.Expenses)})
	}
	return out
}

// CategoryBreakdown sums outflows per category, largest first.
func CategoryBreakdown(expenses []Expense) []CategorySlice {
	totals := make(map[Category]decimal.Decimal)
	for _, e := range expenses {
		if !e.Amount.IsNegative() {
			continue
		}
		totals[e.Category] = totals[e.Category].Add(e.Amount.Decimal.Abs())
	}

	out := make([]CategorySlice, 0, len(totals))
	for c, v := range totals {
		info := c.Info()
		out = append(out, CategorySlice{Name: info.Label, Category: c, Value: NewMoney(v), Color: info.Color})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Value.Cmp(out[j].Value.Decimal); cmp != 0 {
			return cmp > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// RecentTransactions returns the n newest expenses by date, then creation time.
func RecentTransactions(expenses []Expense, n int) []Expense {
	sorted := make([]Expense, len(expenses))
	copy(sorted, expenses)
	SortNewestFirst(sorted)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortNewestFirst orders expenses by date descending, breaking ties on
// creation time and then id so the order is deterministic.
func SortNewestFirst(expenses []Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// BuildAnalytics assembles the analytics payload for the trailing months.
func BuildAnalytics(expenses []Expense, now time.Time, months int) Analytics {
	monthly := MonthlySeries(expenses, now, months)
	return Analytics{
		MonthlyData:  monthly,
		CategoryData: CategoryBreakdown(expenses),
		SavingsData:  SavingsSeries(monthly),
	}
}
