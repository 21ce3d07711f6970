// Package money provides exact monetary arithmetic on minor-unit integer
// amounts. Parsing and percentage math go through shopspring/decimal so no
// float64 ever touches a stored amount; currency metadata and display
// formatting come from Rhymond/go-money.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units (cents for two-fraction
// currencies). The currency itself lives on the owning account row.
type Amount int64

// Fraction returns the number of decimal places for an ISO 4217 code.
// Unknown codes fall back to 2.
func Fraction(currency string) int {
	if c := gomoney.GetCurrency(strings.ToUpper(currency)); c != nil {
		return c.Fraction
	}
	return 2
}

// Parse converts a decimal string such as "45.67" into minor units of the
// given currency. It rejects values with more precision than the currency
// carries rather than rounding silently.
func Parse(s, currency string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return FromDecimal(d, currency)
}

// FromDecimal converts a major-unit decimal into minor units.
func FromDecimal(d decimal.Decimal, currency string) (Amount, error) {
	scaled := d.Shift(int32(Fraction(currency)))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more precision than %s allows", d, currency)
	}
	big := scaled.BigInt()
	if !big.IsInt64() {
		return 0, fmt.Errorf("amount %s out of range", d)
	}
	return Amount(big.Int64()), nil
}

// MustParse is Parse for fixtures and tests; it panics on bad input.
func MustParse(s, currency string) Amount {
	a, err := Parse(s, currency)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the major-unit decimal value of the amount.
func (a Amount) Decimal(currency string) decimal.Decimal {
	return decimal.New(int64(a), 0).Shift(-int32(Fraction(currency)))
}

// Format renders the amount with the currency's symbol and grouping,
// e.g. Amount(123456).Format("USD") == "$1,234.56".
func (a Amount) Format(currency string) string {
	return gomoney.New(int64(a), strings.ToUpper(currency)).Display()
}

// String renders the amount as a plain decimal with two places. Used for
// logs and error messages where the currency is not at hand.
func (a Amount) String() string {
	return decimal.New(int64(a), -2).StringFixed(2)
}

func (a Amount) IsZero() bool     { return a == 0 }
func (a Amount) IsPositive() bool { return a > 0 }
func (a Amount) IsNegative() bool { return a < 0 }

// Neg returns the algebraic inverse of the amount.
func (a Amount) Neg() Amount { return -a }

// Percent returns part as a percentage of total, rounded to two decimal
// places. A zero total yields 0, never a division error.
func Percent(part, total Amount) float64 {
	if total == 0 {
		return 0
	}
	return decimal.New(int64(part), 0).
		Div(decimal.New(int64(total), 0)).
		Mul(decimal.New(100, 0)).
		Round(2).
		InexactFloat64()
}
