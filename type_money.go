package coinfolio

import (
	"database/sql/driver"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// currency is the single reporting currency: every price and value is in USD.
const currency = money.USD

// Money represents a USD amount. Unit prices keep all their digits, only String rounds to cents.
type Money struct {
	value decimal.Decimal // as major unit value
}

// USD creates a Money from a numeric value in dollars.
func USD[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T) Money {
	return Money{value: newDecimal(value)}
}

// String returns the string representation of the money value, like "$1,234.56".
func (m Money) String() string {
	// to get a never nil currency I need to call the Money constructor
	cur := *money.New(0, currency).Currency()
	dec := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(dec.IntPart())
}

// Simple arithmetic, decimal based.

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(amount Money) bool      { return m.value.LessThan(amount.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }
func (m Money) Add(n Money) Money               { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money               { return Money{value: m.value.Sub(n.value)} }
func (m Money) Mul(n Quantity) Money            { return Money{value: m.value.Mul(n.value)} }
func (m Money) Div(n Quantity) Money            { return Money{value: m.value.Div(n.value)} }

// Round returns m rounded to the given number of decimal places.
func (m Money) Round(places int32) Money { return Money{value: m.value.Round(places)} }

// Float64 is only meant for presentation layers that need a float.
func (m Money) Float64() float64 { return m.value.InexactFloat64() }

// Decimal returns the underlying exact value.
func (m Money) Decimal() decimal.Decimal { return m.value }

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// MarshalJSON writes the amount as a bare JSON number, the currency is implied.
func (m Money) MarshalJSON() ([]byte, error) { return m.value.MarshalJSON() }

// UnmarshalJSON accepts JSON numbers, numeric strings and null (zero).
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		m.value = decimal.Zero
		return nil
	}
	return m.value.UnmarshalJSON(b)
}

// Value implements driver.Valuer. Amounts are stored as floating point columns.
func (m Money) Value() (driver.Value, error) { return m.value.InexactFloat64(), nil }

// Scan implements sql.Scanner, NULL scans as zero.
func (m *Money) Scan(src any) error {
	var n decimal.NullDecimal
	if err := n.Scan(src); err != nil {
		return err
	}
	m.value = n.Decimal
	return nil
}
