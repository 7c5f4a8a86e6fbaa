// Package aggregate derives summary metrics from ledger entries.
//
// Amounts are parsed defensively: a blank or malformed amount is an error from
// ParseAmount, and Compute counts such an entry as zero instead of failing.
package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finora-dev/finora/internal/model"
)

var (
	ErrBlankAmount     = errors.New("amount is blank")
	ErrMalformedAmount = errors.New("amount is not a number")
)

var hundred = decimal.NewFromInt(100)

// Amounts beyond these bounds are treated as malformed. Decimal arithmetic
// rescales operands to a common exponent, so an unbounded exponent such as
// "1e30000000" would make every sum slow.
const maxExponent = 30

// MaxAmount is the largest magnitude ParseAmount accepts.
var MaxAmount = decimal.New(1, 15)

// ParseAmount parses a stored amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrBlankAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, raw)
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrMalformedAmount, raw)
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrMalformedAmount, raw)
	}
	return d, nil
}

// AmountOrZero returns the parsed amount, or zero when it does not parse.
func AmountOrZero(raw string) decimal.Decimal {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Summary holds the derived metrics for a set of entries.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetBalance   decimal.Decimal
	// SavingsRatePercent is NetBalance/TotalIncome*100 rounded to one place,
	// or zero when there is no income.
	SavingsRatePercent decimal.Decimal
	// CategoryBreakdown sums expense amounts per category. Entries whose
	// amount does not parse are left out.
	CategoryBreakdown map[string]decimal.Decimal
	// Count is the number of entries summarized, malformed ones included.
	Count int
	// Malformed counts entries whose amount did not parse.
	Malformed int
}

// Compute summarizes entries.
func Compute(entries []model.Transaction) Summary {
	s := Summary{
		TotalIncome:        decimal.Zero,
		TotalExpense:       decimal.Zero,
		SavingsRatePercent: decimal.Zero,
		CategoryBreakdown:  make(map[string]decimal.Decimal),
		Count:              len(entries),
	}

	for _, e := range entries {
		amt, err := ParseAmount(e.Amount)
		if err != nil {
			s.Malformed++
		}

		switch e.Type {
		case model.TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(amt)
		case model.TypeExpense:
			s.TotalExpense = s.TotalExpense.Add(amt)
			if err == nil {
				cat := e.CategoryName()
				s.CategoryBreakdown[cat] = s.CategoryBreakdown[cat].Add(amt)
			}
		}
	}

	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	if s.TotalIncome.IsPositive() {
		s.SavingsRatePercent = s.NetBalance.Div(s.TotalIncome).Mul(hundred).Round(1)
	}
	return s
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// Breakdown returns the category breakdown, largest amount first, ties by name.
func (s Summary) Breakdown() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(s.CategoryBreakdown))
	for cat, amt := range s.CategoryBreakdown {
		out = append(out, CategoryTotal{Category: cat, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
