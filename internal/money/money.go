// Package money renders amounts in a currency's display convention.
package money

import (
	"math"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/finora-dev/finora/internal/aggregate"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = gomoney.INR

// Known reports whether code is a currency go-money knows how to display.
func Known(code string) bool {
	return gomoney.GetCurrency(strings.ToUpper(code)) != nil
}

// Format renders amount, rounded to the currency's minor unit, e.g. ₹1,500.00.
// Currencies go-money does not know, and amounts too large for go-money's
// int64 minor units, are shown as "1500.00 XYZ".
func Format(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	cur := gomoney.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	if minor.Abs().GreaterThan(maxMinor) {
		return amount.StringFixed(int32(cur.Fraction)) + " " + code
	}
	return cur.Formatter().Format(minor.IntPart())
}

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// FormatRaw renders a stored amount. Amounts that do not parse are returned
// as stored.
func FormatRaw(raw, currency string) string {
	d, err := aggregate.ParseAmount(raw)
	if err != nil {
		return raw
	}
	return Format(d, currency)
}
