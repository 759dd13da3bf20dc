/*
tier.go - Rolling-window tier evaluation

PURPOSE:
  Assigns a customer's loyalty tier from spend and visit counts inside a
  rolling time window. Each tier carries its own window length, thresholds,
  rank, and point-earning multiplier.

ALGORITHM:
  Tiers are sorted by rank descending ONCE, when the tier set is replaced.
  Evaluation walks tiers highest rank first; for each tier the window start
  is (now - window span), spend is the sum of sale totals on or after that
  start, and visits is the count of such sales plus the customer's manual
  visit adjustment. The first tier whose thresholds are both met wins.

  A rank-0 base tier with zero thresholds guarantees every customer
  matches something.

RE-EVALUATION:
  The evaluator runs after every sale for that customer, for every customer
  when tier definitions change, and once daily after the expiry sweep.

SEE ALSO:
  - time.go: Window arithmetic
  - ../sale: per-sale and batch re-evaluation call sites
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Tier is one customer classification level.
type Tier struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	MinVisits        int             `json:"minVisits"`
	MinSpend         decimal.Decimal `json:"minSpend"`
	Window           Window          `json:"window"`
	PointsMultiplier decimal.Decimal `json:"pointsMultiplier"`
	Rank             int             `json:"rank"` // higher = evaluated first
}

// TierSale is the minimal view of a sale the evaluator needs.
type TierSale struct {
	Date  Date
	Total decimal.Decimal
}

// =============================================================================
// TIER SET
// =============================================================================

// TierSet holds the configured tiers sorted by rank descending.
type TierSet struct {
	tiers []Tier
}

// NewTierSet copies and sorts tiers by rank descending; the sort happens
// on configuration change, not per evaluation.
func NewTierSet(tiers []Tier) *TierSet {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank > sorted[j].Rank
	})
	return &TierSet{tiers: sorted}
}

// ByID looks up a tier definition.
func (ts *TierSet) ByID(id string) (Tier, bool) {
	for _, t := range ts.tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// Tiers returns the sorted tier list.
func (ts *TierSet) Tiers() []Tier {
	out := make([]Tier, len(ts.tiers))
	copy(out, ts.tiers)
	return out
}

// Evaluate returns the highest-rank tier whose window thresholds the
// customer meets. Evaluation stops at the first match. ok is false only
// when the tier set has no tier the customer qualifies for, which a
// zero-threshold base tier rules out.
func (ts *TierSet) Evaluate(now Date, sales []TierSale, manualVisitAdjustment int) (string, bool) {
	for _, tier := range ts.tiers {
		start := tier.Window.StartBefore(now)

		visits := manualVisitAdjustment
		spend := decimal.Zero
		for _, s := range sales {
			if s.Date.AfterOrEqual(start) {
				visits++
				spend = spend.Add(s.Total)
			}
		}

		if visits >= tier.MinVisits && spend.GreaterThanOrEqual(tier.MinSpend) {
			return tier.ID, true
		}
	}
	return "", false
}
