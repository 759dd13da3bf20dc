/*
earning.go - Point-earning bracket selection

PURPOSE:
  Maps a sale subtotal to a points-per-100-currency-units rate. Rules are
  spend brackets [MinSpend, MaxSpend]; a nil MaxSpend means open-ended.

LOOKUP ORDER:
  Rules are sorted by MinSpend ascending ONCE, when the rule set is
  replaced, not on every sale. The first bracket containing the subtotal
  wins. Gaps between brackets are possible and yield "no rule" (zero
  points); keeping the brackets contiguous is the configurer's job.

SEE ALSO:
  - tier.go: the per-customer multiplier applied on top of the bracket rate
  - ../sale: where earned points are computed during settlement
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EarningRule is one spend bracket. A subtotal s matches when
// MinSpend <= s and (MaxSpend == nil or s <= MaxSpend).
type EarningRule struct {
	MinSpend         decimal.Decimal  `json:"minSpend"`
	MaxSpend         *decimal.Decimal `json:"maxSpend,omitempty"` // nil = unbounded
	PointsPerHundred decimal.Decimal  `json:"pointsPerHundred"`
}

// Contains reports whether the subtotal falls inside this bracket.
func (r EarningRule) Contains(subtotal decimal.Decimal) bool {
	if subtotal.LessThan(r.MinSpend) {
		return false
	}
	if r.MaxSpend != nil && subtotal.GreaterThan(*r.MaxSpend) {
		return false
	}
	return true
}

// BasePoints returns the unmultiplied points for a subtotal under this rule:
// (subtotal / 100) * PointsPerHundred, as a fractional amount. Rounding to
// whole points happens once, after tier and promotion multipliers.
func (r EarningRule) BasePoints(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Div(hundred).Mul(r.PointsPerHundred)
}

// =============================================================================
// EARNING RULES - Sorted bracket set
// =============================================================================

// EarningRules holds the active rule set, kept sorted by MinSpend ascending
// so bracket selection is a single forward scan with an explicit
// first-match-wins tie-break.
type EarningRules struct {
	rules []EarningRule
}

// NewEarningRules copies and sorts the given rules by MinSpend ascending.
// Sorting happens here, on configuration change, not per sale.
func NewEarningRules(rules []EarningRule) *EarningRules {
	sorted := make([]EarningRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinSpend.LessThan(sorted[j].MinSpend)
	})
	return &EarningRules{rules: sorted}
}

// Match returns the first bracket containing the subtotal.
// ok is false when no bracket matches (the subtotal earns nothing).
func (er *EarningRules) Match(subtotal decimal.Decimal) (EarningRule, bool) {
	for _, r := range er.rules {
		if r.Contains(subtotal) {
			return r, true
		}
	}
	return EarningRule{}, false
}

// Rules returns the sorted rule set.
func (er *EarningRules) Rules() []EarningRule {
	out := make([]EarningRule, len(er.rules))
	copy(out, er.rules)
	return out
}
