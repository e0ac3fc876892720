// Package core provides the movement data model, money parsing and
// formatting, calendar month helpers and the monthly statement.
//
// This file contains functions for parsing monetary amounts from user text
// and converting between cents and their decimal representations.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencySymbol is the display symbol of the single home currency.
const CurrencySymbol = "€"

// maxAmount keeps amounts within int64 once scaled to minor units.
var maxAmount = decimal.New((1<<63-1)/100, 0)

const (
	// maxIntDigits is the digit count of maxAmount.
	maxIntDigits = 17
	// maxScale bounds the fractional digits accepted before rounding.
	maxScale = 32
)

// parseDecimal parses s and rejects values whose exponent would make
// rescaling expensive ("1e10000000") before any arithmetic is done.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	exp := int(d.Exponent())
	if exp < -maxScale || exp+d.NumDigits() > maxIntDigits {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// ParseAmount converts user text to a positive amount rounded to cents.
//
// Surrounding whitespace is ignored and a comma is accepted as the decimal
// separator. Rounding is half away from zero on the third decimal. The
// second result is false for empty, non-numeric, negative, zero or
// out-of-range input; callers show a validation message instead of failing.
//
// Examples:
//   ParseAmount("12.34")  -> 1234 cents
//   ParseAmount("12,34")  -> 1234 cents
//   ParseAmount("12.345") -> 1235 cents
//   ParseAmount("0.004")  -> invalid (rounds to zero)
func ParseAmount(input string) (Money, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Money{}, false
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, false
	}
	if !d.IsPositive() || d.GreaterThan(maxAmount) {
		return Money{}, false
	}
	cents := d.Round(2).Shift(2).IntPart()
	if cents <= 0 {
		return Money{}, false
	}
	return Money{Cents: cents}, true
}

// ParseDecimalToCents is ParseAmount for callers that want an error.
func ParseDecimalToCents(s string) (int64, error) {
	m, ok := ParseAmount(s)
	if !ok {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

// Decimal returns the amount as an exact decimal in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Euros returns the euro value as a float64 for display purposes.
// Use cents for calculations.
func (m Money) Euros() float64 {
	return m.Decimal().InexactFloat64()
}

// FormatAmount renders m with exactly two decimals and no symbol ("12.50").
// The result parses back to the same value with ParseAmount.
func FormatAmount(m Money) string {
	return m.Decimal().StringFixed(2)
}

// FormatCurrency renders m in the home currency display form ("€1,234.50", "-€12.50").
func FormatCurrency(m Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, CurrencySymbol, humanize.Comma(cents/100), cents%100)
}

// MarshalJSON writes the amount as a plain JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number (or numeric string) and rounds it to cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	d, err := parseDecimal(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, raw)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	m.Cents = d.Round(2).Shift(2).IntPart()
	return nil
}
