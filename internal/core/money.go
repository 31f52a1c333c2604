// Package core provides money parsing and handling utilities.
//
// Amounts are held as decimals so that sums of values like 120.5 and 65.99
// stay exact. JSON renders them as plain numbers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed monetary amount.
type Money struct {
	decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{Decimal: decimal.New(cents, -2)}
}

// MoneyFromFloat builds an amount from a float, rounded to cents.
func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f).Round(2)}
}

// ParseAmount converts a decimal string to Money rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign. Rounding is half away from zero on the third decimal place.
// Zero amounts are rejected.
//
// Examples:
//
//	ParseAmount("12.34")   -> 12.34
//	ParseAmount("-120,5")  -> -120.5
//	ParseAmount("12.345")  -> 12.35
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if d.IsZero() {
		return Zero, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

// Cents returns the amount as an integer number of cents.
func (m Money) Cents() int64 {
	return m.Decimal.Shift(2).Round(0).IntPart()
}

// Float returns the value as a float64 for display and spreadsheet cells.
func (m Money) Float() float64 {
	f, _ := m.Decimal.Float64()
	return f
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

func (m Money) Abs() Money {
	return Money{Decimal: m.Decimal.Abs()}
}

func (m Money) Neg() Money {
	return Money{Decimal: m.Decimal.Neg()}
}

// Equal compares amounts by value, ignoring representation.
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// String formats the amount with two decimals.
func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}
