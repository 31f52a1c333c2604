package core

import "strings"

// Category is one of the fixed labels classifying an expense or a budget.
type Category string

const (
	Housing       Category = "housing"
	Food          Category = "food"
	Transport     Category = "transport"
	Utilities     Category = "utilities"
	Entertainment Category = "entertainment"
	Healthcare    Category = "healthcare"
	Education     Category = "education"
	Shopping      Category = "shopping"
	Personal      Category = "personal"
	Other         Category = "other"
	Income        Category = "income"
)

// CategoryInfo describes how a category is presented.
type CategoryInfo struct {
	Value Category `json:"value"`
	Label string   `json:"label"`
	Color string   `json:"color"` // chart colour
	Badge string   `json:"badge"` // css class for progress bars
}

var categories = []CategoryInfo{
	{Housing, "Housing", "#8884d8", "bg-purple-500"},
	{Food, "Food", "#82ca9d", "bg-green-500"},
	{Transport, "Transport", "#ffc658", "bg-yellow-500"},
	{Utilities, "Utilities", "#ff8042", "bg-orange-500"},
	{Entertainment, "Entertainment", "#0088fe", "bg-blue-500"},
	{Healthcare, "Healthcare", "#00C49F", "bg-emerald-500"},
	{Education, "Education", "#6366f1", "bg-indigo-500"},
	{Shopping, "Shopping", "#ec4899", "bg-pink-500"},
	{Personal, "Personal", "#06b6d4", "bg-cyan-500"},
	{Other, "Other", "#FFBB28", "bg-gray-500"},
	{Income, "Income", "#10b981", "bg-emerald-500"},
}

var categoryIndex = func() map[Category]CategoryInfo {
	m := make(map[Category]CategoryInfo, len(categories))
	for _, c := range categories {
		m[c.Value] = c
	}
	return m
}()

// Categories returns the catalogue in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory normalises s and checks it against the catalogue.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryIndex[c]
	return ok
}

// Info returns the presentation data, falling back to Other.
func (c Category) Info() CategoryInfo {
	if info, ok := categoryIndex[c]; ok {
		return info
	}
	return categoryIndex[Other]
}

func (c Category) Label() string { return c.Info().Label }
