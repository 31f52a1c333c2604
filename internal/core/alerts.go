package core

import "fmt"

// AlertLevel grades how close a budget is to its limit.
type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"
	AlertExceeded AlertLevel = "exceeded"
)

// DefaultAlertThreshold is the percentage of a budget that triggers a warning.
const DefaultAlertThreshold = 80.0

// BudgetAlert is raised for a budget at or past the alert threshold.
type BudgetAlert struct {
	UserID   string     `json:"userId"`
	BudgetID string     `json:"budgetId"`
	Category Category   `json:"category"`
	Period   Period     `json:"period"`
	Level    AlertLevel `json:"level"`
	Limit    Money      `json:"limit"`
	Spent    Money      `json:"spent"`
	Percent  float64    `json:"percent"`
}

// Message renders the alert for notification channels.
func (a BudgetAlert) Message() string {
	if a.Level == AlertExceeded {
		return fmt.Sprintf("%s %s budget exceeded: spent %s of %s (%.0f%%)",
			a.Category.Label(), a.Period, a.Spent, a.Limit, a.Percent)
	}
	return fmt.Sprintf("%s %s budget at %.0f%%: spent %s of %s",
		a.Category.Label(), a.Period, a.Percent, a.Spent, a.Limit)
}

// CheckBudgetAlerts returns one alert per budget whose spend reached
// threshold percent of its limit. Spending strictly above the limit is
// reported as exceeded. Order follows progress.
func CheckBudgetAlerts(progress []BudgetProgress, threshold float64) []BudgetAlert {
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}
	var alerts []BudgetAlert
	for _, p := range progress {
		pct := p.Percent()
		if pct < threshold {
			continue
		}
		level := AlertWarning
		if p.Spent.GreaterThan(p.Amount.Decimal) {
			level = AlertExceeded
		}
		alerts = append(alerts, BudgetAlert{
			UserID:   p.UserID,
			BudgetID: p.ID,
			Category: p.Category,
			Period:   p.Period,
			Level:    level,
			Limit:    p.Amount,
			Spent:    p.Spent,
			Percent:  pct,
		})
	}
	return alerts
}
