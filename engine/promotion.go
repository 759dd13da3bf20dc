package engine

import "github.com/shopspring/decimal"

// =============================================================================
// PROMOTION RESOLVER - Point-multiplier promotions by calendar date
// =============================================================================

// Promotion multiplies earned points during an inclusive calendar-day range.
type Promotion struct {
	Name       string          `json:"name"`
	StartDate  Date            `json:"startDate"`
	EndDate    Date            `json:"endDate"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// ActiveOn reports whether the promotion covers the given day.
// Both endpoints are inclusive.
func (p Promotion) ActiveOn(day Date) bool {
	return day.AfterOrEqual(p.StartDate) && day.BeforeOrEqual(p.EndDate)
}

// Promotions is the stored promotion list. When ranges overlap, the first
// stored promotion covering the day wins; the stored order is the
// tie-break, so overlapping configurations should be avoided.
type Promotions struct {
	list []Promotion
}

func NewPromotions(list []Promotion) *Promotions {
	copied := make([]Promotion, len(list))
	copy(copied, list)
	return &Promotions{list: copied}
}

// ActiveOn returns the first promotion whose range contains the day.
func (ps *Promotions) ActiveOn(day Date) (Promotion, bool) {
	for _, p := range ps.list {
		if p.ActiveOn(day) {
			return p, true
		}
	}
	return Promotion{}, false
}

func (ps *Promotions) List() []Promotion {
	out := make([]Promotion, len(ps.list))
	copy(out, ps.list)
	return out
}
