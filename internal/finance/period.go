package finance

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// Period is a calendar month bucket formatted as "YYYY-MM".
type Period string

// ParsePeriod validates a "YYYY-MM" string.
func ParsePeriod(raw string) (Period, error) {
	t, err := time.Parse(periodLayout, raw)
	if err != nil {
		return "", fmt.Errorf("period %q must be formatted YYYY-MM", raw)
	}
	return Period(t.Format(periodLayout)), nil
}

// PeriodOf returns the UTC month containing t.
func PeriodOf(t time.Time) Period {
	return Period(t.UTC().Format(periodLayout))
}

func (p Period) String() string { return string(p) }

// Start is the first instant of the month (UTC).
func (p Period) Start() time.Time {
	t, err := time.Parse(periodLayout, string(p))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// End is the first instant of the following month; ranges are [Start, End).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls inside [Start, End).
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}

// Shift moves the period by n months.
func (p Period) Shift(n int) Period {
	return PeriodOf(p.Start().AddDate(0, n, 0))
}

// Window returns the n consecutive months ending at p, oldest first.
func (p Period) Window(n int) []Period {
	if n <= 0 {
		return nil
	}
	out := make([]Period, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, p.Shift(-i))
	}
	return out
}
