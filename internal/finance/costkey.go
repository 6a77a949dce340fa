package finance

import "strings"

// Uncoded groups ledger rows that carry neither a code nor a category.
const Uncoded CostKey = "Uncoded"

// CostKey is the grouping key of a CVR cost-code line.
type CostKey string

// ResolveCostKey returns the first non-blank candidate, or Uncoded.
func ResolveCostKey(candidates ...string) CostKey {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return CostKey(c)
		}
	}
	return Uncoded
}

// Matches compares keys case-insensitively.
func (k CostKey) Matches(name string) bool {
	return strings.EqualFold(string(k), strings.TrimSpace(name))
}
