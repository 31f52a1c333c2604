package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

const (
	USD Currency = "usd"
	EUR Currency = "eur"
	GBP Currency = "gbp"
	CAD Currency = "cad"
	AUD Currency = "aud"
)

const (
	MinDescriptionLen = 2
	MaxDescriptionLen = 200
	MaxGoalNameLen    = 100
)

type (
	// Period is the reset cadence of a budget.
	Period string

	// Currency is the user's display currency. Amounts are never converted.
	Currency string

	Date struct {
		time.Time
	}

	Expense struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"` // negative = outflow, positive = inflow
		Category    Category  `json:"category"`
		Date        Date      `json:"date"`
		UserID      string    `json:"userId"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	Budget struct {
		ID       string   `json:"id"`
		Category Category `json:"category"`
		Amount   Money    `json:"amount"` // limit, always positive
		Period   Period   `json:"period"`
		UserID   string   `json:"userId"`
	}

	SavingsGoal struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Current Money  `json:"current"`
		Target  Money  `json:"target"`
		Color   string `json:"color"`
		UserID  string `json:"userId"`
	}

	Notifications struct {
		Email             bool `json:"email"`
		Push              bool `json:"push"`
		WeeklyReport      bool `json:"weeklyReport"`
		BudgetAlerts      bool `json:"budgetAlerts"`
		SavingsGoalAlerts bool `json:"savingsGoalAlerts"`
	}

	Settings struct {
		UserID        string        `json:"userId"`
		Name          string        `json:"name"`
		Email         string        `json:"email"`
		Currency      Currency      `json:"currency"`
		Notifications Notifications `json:"notifications"`
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrEmptyUserID       = errors.New("empty user id")
	ErrInvalidGoal       = errors.New("invalid savings goal")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidName       = errors.New("invalid name")
	ErrIncomeBudget      = errors.New("budgets cannot target the income category")
	ErrDescriptionLength = fmt.Errorf("%w: must be %d-%d characters", ErrEmptyDescription, MinDescriptionLen, MaxDescriptionLen)
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (p Period) Valid() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, GBP, CAD, AUD:
		return true
	}
	return false
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if n := len([]rune(desc)); n < MinDescriptionLen || n > MaxDescriptionLen {
		return ErrDescriptionLength
	}
	if e.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	return nil
}

// IsOutflow reports whether the expense reduces the balance.
func (e Expense) IsOutflow() bool {
	return e.Amount.IsNegative()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUserID
	}
	if !b.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, b.Category)
	}
	if b.Category == Income {
		return ErrIncomeBudget
	}
	if !b.Amount.IsPositive() {
		return fmt.Errorf("%w: budget limit must be positive", ErrInvalidAmount)
	}
	if !b.Period.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, b.Period)
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrEmptyUserID
	}
	name := strings.TrimSpace(g.Name)
	if n := len([]rune(name)); n < 2 || n > MaxGoalNameLen {
		return fmt.Errorf("%w: name must be 2-%d characters", ErrInvalidGoal, MaxGoalNameLen)
	}
	if !g.Target.IsPositive() {
		return fmt.Errorf("%w: target must be positive", ErrInvalidGoal)
	}
	if g.Current.IsNegative() {
		return fmt.Errorf("%w: current cannot be negative", ErrInvalidGoal)
	}
	return nil
}

// Percent returns how much of the target has been saved, capped at 100.
func (g SavingsGoal) Percent() float64 {
	if !g.Target.IsPositive() {
		return 0
	}
	p, _ := g.Current.Div(g.Target.Decimal).Shift(2).Round(2).Float64()
	if p > 100 {
		return 100
	}
	return p
}

// DefaultSettings mirrors the preferences a new account starts with.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:   userID,
		Currency: USD,
		Notifications: Notifications{
			Email:        true,
			WeeklyReport: true,
			BudgetAlerts: true,
		},
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrEmptyUserID
	}
	if s.Name != "" && len([]rune(strings.TrimSpace(s.Name))) < 2 {
		return fmt.Errorf("%w: must be at least 2 characters", ErrInvalidName)
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidEmail, s.Email)
		}
	}
	if !s.Currency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, s.Currency)
	}
	return nil
}

// IsValidationError reports whether err originates from domain validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyDescription, ErrInvalidCategory,
		ErrInvalidPeriod, ErrEmptyUserID, ErrInvalidGoal, ErrInvalidCurrency,
		ErrInvalidEmail, ErrInvalidName, ErrIncomeBudget,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
