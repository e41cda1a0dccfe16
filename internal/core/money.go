// Package core provides money parsing and handling utilities.
//
// Amounts are fixed-point decimals. They are persisted as integer units of
// one ten-thousandth so that SQL aggregates stay exact, and rounded to two
// decimals only when presented.
package core

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// unitScale is the number of decimal places kept in storage.
const unitScale = 4

// MaxAmount is the largest amount accepted on input, matching a
// decimal(10,2) column.
var MaxAmount = Money{Decimal: decimal.RequireFromString("99999999.99")}

// Money is a fixed-point currency amount.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to the storage scale.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(unitScale)}
}

// MoneyFromUnits builds a Money from its stored integer representation.
func MoneyFromUnits(units int64) Money {
	return Money{Decimal: decimal.New(units, -unitScale)}
}

// MustMoney parses s and panics on error. Intended for tests and constants.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// to the storage scale. Sign handling is left to the caller's validation.
//
// Examples:
//
//	ParseMoney("12.34")   -> 12.34
//	ParseMoney("12,34")   -> 12.34
//	ParseMoney("10.005")  -> 10.005
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewMoney(d), nil
}

// Units returns the stored integer representation. It fails when the amount
// does not fit in an int64.
func (m Money) Units() (int64, error) {
	n := m.Decimal.Shift(unitScale).Round(0).BigInt()
	if !n.IsInt64() {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, m.Decimal.String())
	}
	return n.Int64(), nil
}

// WithinLimit reports whether m is no larger than MaxAmount.
func (m Money) WithinLimit() bool {
	return m.Decimal.LessThanOrEqual(MaxAmount.Decimal)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

// DivInt divides m by n, rounding to the storage scale. Division by zero yields zero.
func (m Money) DivInt(n int64) Money {
	if n == 0 {
		return Money{}
	}
	return NewMoney(m.Decimal.Div(decimal.NewFromInt(n)))
}

// Equal compares two amounts by value.
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// String formats the amount rounded to cents.
func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.StringFixed(2)), nil
}

// UnmarshalJSON accepts JSON numbers and numeric strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		*m = Money{}
		return nil
	}
	raw = strings.Trim(raw, `"`)
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer using the integer unit representation.
func (m Money) Value() (driver.Value, error) {
	return m.Units()
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Money{}
	case int64:
		*m = MoneyFromUnits(v)
	case float64:
		*m = MoneyFromUnits(int64(v))
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
	return nil
}

func (m *Money) scanString(s string) error {
	units, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = MoneyFromUnits(units)
	return nil
}

// Percent returns part/whole*100 rounded to the given places, capped at 100.
// A non-positive whole yields zero.
func Percent(part, whole Money, places int32) float64 {
	if !whole.Decimal.IsPositive() {
		return 0
	}
	p := part.Decimal.Div(whole.Decimal).Mul(decimal.NewFromInt(100))
	if p.GreaterThan(decimal.NewFromInt(100)) {
		p = decimal.NewFromInt(100)
	}
	return p.Round(places).InexactFloat64()
}
