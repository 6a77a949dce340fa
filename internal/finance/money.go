package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Amounts are stored as decimal(18,4).
const AmountScale = 4

var amountLimit = decimal.New(1, 18-AmountScale)

// ParseAmount converts a user supplied amount string into a decimal.
// Empty strings are rejected so callers can report the field as missing, and
// values the amount columns cannot hold are rejected rather than rounded.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not numeric", raw)
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", raw, AmountScale)
	}
	if d.Abs().GreaterThanOrEqual(amountLimit) {
		return decimal.Zero, fmt.Errorf("amount %q is out of range", raw)
	}
	return d, nil
}

// Percent returns num / den * 100 rounded to 2dp, or nil when den is zero.
func Percent(num, den decimal.Decimal) *decimal.Decimal {
	if den.IsZero() {
		return nil
	}
	pct := num.Div(den).Mul(hundred).Round(2)
	return &pct
}

// Figures is the value/cost/margin triple shared by every CVR view.
type Figures struct {
	Value     decimal.Decimal  `json:"value"`
	Cost      decimal.Decimal  `json:"cost"`
	Margin    decimal.Decimal  `json:"margin"`
	MarginPct *decimal.Decimal `json:"margin_pct"`
}

// NewFigures derives margin from value and cost. MarginPct is only defined
// for a positive value.
func NewFigures(value, cost decimal.Decimal) Figures {
	f := Figures{
		Value:  value,
		Cost:   cost,
		Margin: value.Sub(cost),
	}
	if value.IsPositive() {
		f.MarginPct = Percent(f.Margin, value)
	}
	return f
}

// ErosionPct is the share of budget consumed beyond plan:
// (committed + actual - budget) / budget * 100.
func ErosionPct(budget, committed, actual decimal.Decimal) *decimal.Decimal {
	return Percent(committed.Add(actual).Sub(budget), budget)
}
