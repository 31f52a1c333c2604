package seed

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"smartspend/internal/core"
)

var randomCategories = []core.Category{
	core.Housing, core.Food, core.Transport, core.Utilities, core.Entertainment,
	core.Healthcare, core.Education, core.Shopping, core.Personal, core.Other,
}

// RandomOptions shapes a generated history. A zero Seed picks a random one.
type RandomOptions struct {
	Months    int     // trailing months to cover, including the current one
	PerMonth  int     // outflows per month
	Salary    float64 // inflow on the 1st of each month
	MaxAmount float64 // upper bound of a single outflow
	Seed      int64
}

func (o RandomOptions) withDefaults() RandomOptions {
	if o.Months <= 0 {
		o.Months = 6
	}
	if o.PerMonth <= 0 {
		o.PerMonth = 15
	}
	if o.Salary <= 0 {
		o.Salary = 3500
	}
	if o.MaxAmount < 5 {
		o.MaxAmount = 250
	}
	return o
}

// Random generates a plausible expense history for userID ending at now.
// The same Seed always yields the same records.
func Random(userID string, now time.Time, opts RandomOptions) []core.Expense {
	opts = opts.withDefaults()
	faker := gofakeit.New(opts.Seed)
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]core.Expense, 0, opts.Months*(opts.PerMonth+1))
	for m := opts.Months - 1; m >= 0; m-- {
		start := first.AddDate(0, -m, 0)
		end := start.AddDate(0, 1, -1)
		if end.After(now) {
			end = now
		}

		out = append(out, core.Expense{
			UserID:      userID,
			Description: "Salary",
			Amount:      core.MoneyFromFloat(opts.Salary),
			Category:    core.Income,
			Date:        core.DateOf(start),
		})
		for i := 0; i < opts.PerMonth; i++ {
			out = append(out, core.Expense{
				UserID:      userID,
				Description: faker.Company(),
				Amount:      core.MoneyFromFloat(-faker.Float64Range(1, opts.MaxAmount)),
				Category:    randomCategories[faker.IntRange(0, len(randomCategories)-1)],
				Date:        core.DateOf(faker.DateRange(start, end)),
			})
		}
	}
	return out
}
