package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func decEqual(t *testing.T, want, got decimal.Decimal, msg string) {
	t.Helper()
	if !want.Equal(got) {
		t.Errorf("%s: expected %s, got %s", msg, want, got)
	}
}

// =============================================================================
// DISCOUNT RESOLVER TESTS
// =============================================================================

func TestDiscountAmount_Fixed(t *testing.T) {
	// GIVEN: A fixed discount of 50 on a base of 200
	// WHEN: Resolving the discount
	// THEN: The amount is the value itself, independent of the base

	got := engine.DiscountAmount(dec(200), dec(50), engine.DiscountFixed)
	decEqual(t, dec(50), got, "fixed discount")
}

func TestDiscountAmount_Percentage(t *testing.T) {
	// GIVEN: A 10% discount on a base of 250
	// WHEN: Resolving the discount
	// THEN: The amount is base * value / 100

	got := engine.DiscountAmount(dec(250), dec(10), engine.DiscountPercent)
	decEqual(t, dec(25), got, "percentage discount")
}

func TestDiscountAmount_ZeroValue(t *testing.T) {
	got := engine.DiscountAmount(dec(999), decimal.Zero, engine.DiscountPercent)
	decEqual(t, decimal.Zero, got, "zero discount value")
}

// =============================================================================
// EARNING RULE TESTS
// =============================================================================

func bracketRules() *engine.EarningRules {
	max1 := dec(500)
	max2 := dec(1000)
	// Deliberately unsorted; the constructor sorts by MinSpend.
	return engine.NewEarningRules([]engine.EarningRule{
		{MinSpend: dec(1001), MaxSpend: nil, PointsPerHundred: dec(2)},
		{MinSpend: decimal.Zero, MaxSpend: &max1, PointsPerHundred: dec(1)},
		{MinSpend: dec(501), MaxSpend: &max2, PointsPerHundred: dec(1.5)},
	})
}

func TestEarningRules_BracketSelection(t *testing.T) {
	// GIVEN: Brackets 0-500 @1, 501-1000 @1.5, 1001+ @2
	// WHEN: Matching a 600 subtotal
	// THEN: The middle bracket wins and yields 9 base points

	rules := bracketRules()

	rule, ok := rules.Match(dec(600))
	if !ok {
		t.Fatal("expected a bracket to match 600")
	}
	decEqual(t, dec(1.5), rule.PointsPerHundred, "bracket rate")
	decEqual(t, dec(9), rule.BasePoints(dec(600)), "base points for 600")
}

func TestEarningRules_BoundariesInclusive(t *testing.T) {
	rules := bracketRules()

	lower, ok := rules.Match(dec(500))
	if !ok || !lower.PointsPerHundred.Equal(dec(1)) {
		t.Errorf("500 should fall in the first bracket, got ok=%v rate=%s", ok, lower.PointsPerHundred)
	}
	upper, ok := rules.Match(dec(501))
	if !ok || !upper.PointsPerHundred.Equal(dec(1.5)) {
		t.Errorf("501 should fall in the second bracket, got ok=%v rate=%s", ok, upper.PointsPerHundred)
	}
}

func TestEarningRules_OpenEndedBracket(t *testing.T) {
	rules := bracketRules()
	rule, ok := rules.Match(dec(250000))
	if !ok {
		t.Fatal("open-ended bracket should match any large subtotal")
	}
	decEqual(t, dec(2), rule.PointsPerHundred, "open-ended rate")
}

func TestEarningRules_GapYieldsNoMatch(t *testing.T) {
	// GIVEN: Brackets 0-100 and 200+ with a gap between
	// WHEN: Matching a subtotal inside the gap
	// THEN: No rule matches and the sale earns nothing

	max := dec(100)
	rules := engine.NewEarningRules([]engine.EarningRule{
		{MinSpend: decimal.Zero, MaxSpend: &max, PointsPerHundred: dec(1)},
		{MinSpend: dec(200), MaxSpend: nil, PointsPerHundred: dec(2)},
	})

	if _, ok := rules.Match(dec(150)); ok {
		t.Error("a subtotal inside a bracket gap should match no rule")
	}
}

// =============================================================================
// PROMOTION TESTS
// =============================================================================

func TestPromotion_ActiveOn_InclusiveEndpoints(t *testing.T) {
	p := engine.Promotion{
		Name:       "diwali",
		StartDate:  engine.NewDate(2025, time.October, 20),
		EndDate:    engine.NewDate(2025, time.October, 25),
		Multiplier: dec(2),
	}

	if !p.ActiveOn(engine.NewDate(2025, time.October, 20)) {
		t.Error("promotion should be active on its start date")
	}
	if !p.ActiveOn(engine.NewDate(2025, time.October, 25)) {
		t.Error("promotion should be active on its end date")
	}
	if p.ActiveOn(engine.NewDate(2025, time.October, 26)) {
		t.Error("promotion should be inactive the day after it ends")
	}
}

func TestPromotions_OverlapFirstStoredWins(t *testing.T) {
	// GIVEN: Two overlapping promotions
	// WHEN: Resolving a day covered by both
	// THEN: The first stored promotion wins

	ps := engine.NewPromotions([]engine.Promotion{
		{Name: "first", StartDate: engine.NewDate(2025, time.May, 1), EndDate: engine.NewDate(2025, time.May, 31), Multiplier: dec(2)},
		{Name: "second", StartDate: engine.NewDate(2025, time.May, 15), EndDate: engine.NewDate(2025, time.June, 15), Multiplier: dec(3)},
	})

	promo, ok := ps.ActiveOn(engine.NewDate(2025, time.May, 20))
	if !ok {
		t.Fatal("expected an active promotion")
	}
	if promo.Name != "first" {
		t.Errorf("expected first stored promotion to win, got %q", promo.Name)
	}
}

func TestPromotions_NoneActive(t *testing.T) {
	ps := engine.NewPromotions(nil)
	if _, ok := ps.ActiveOn(engine.NewDate(2025, time.May, 20)); ok {
		t.Error("empty promotion list should match nothing")
	}
}

// =============================================================================
// REDEMPTION TESTS
// =============================================================================

func TestRedemptionRule_FixedValue(t *testing.T) {
	// GIVEN: 1 point = 1 currency unit
	// WHEN: Redeeming 15 of 40 available points against a 100 bill
	// THEN: The discount is 15

	rule := engine.RedemptionRule{Method: engine.RedeemFixedValue, Points: 1, Value: dec(1)}

	got, err := rule.Discount(15, 40, dec(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, dec(15), got, "fixed-value redemption")
}

func TestRedemptionRule_Percentage(t *testing.T) {
	// GIVEN: Every 100 points are worth 5% of the bill
	// WHEN: Redeeming 200 of 500 points against a 1000 bill
	// THEN: The discount is 10% of 1000

	rule := engine.RedemptionRule{Method: engine.RedeemPercentage, Points: 100, Value: dec(5)}

	got, err := rule.Discount(200, 500, dec(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, dec(100), got, "percentage redemption")
}

func TestRedemptionRule_CappedAtBill(t *testing.T) {
	// GIVEN: A redemption worth more than the bill
	// WHEN: Converting the points
	// THEN: The discount zeroes the bill but never exceeds it

	rule := engine.RedemptionRule{Method: engine.RedeemFixedValue, Points: 1, Value: dec(1)}

	got, err := rule.Discount(50, 50, dec(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, dec(30), got, "capped redemption")
}

func TestRedemptionRule_ExceedsAvailable(t *testing.T) {
	rule := engine.RedemptionRule{Method: engine.RedeemFixedValue, Points: 1, Value: dec(1)}

	_, err := rule.Discount(100, 40, dec(500))
	if !errors.Is(err, engine.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	var detail *engine.InsufficientPointsError
	if !errors.As(err, &detail) {
		t.Fatal("expected an InsufficientPointsError with detail")
	}
	if detail.Requested != 100 || detail.Available != 40 {
		t.Errorf("expected requested=100 available=40, got %+v", detail)
	}
}

func TestRedemptionRule_ZeroRedeemed(t *testing.T) {
	rule := engine.RedemptionRule{Method: engine.RedeemFixedValue, Points: 1, Value: dec(1)}
	got, err := rule.Discount(0, 40, dec(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decEqual(t, decimal.Zero, got, "zero redemption")
}

// =============================================================================
// ROUNDING TESTS
// =============================================================================

func TestRoundPoints_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   decimal.Decimal
		want int64
	}{
		{dec(8.4), 8},
		{dec(8.5), 9},
		{dec(9.0), 9},
	}
	for _, c := range cases {
		if got := engine.RoundPoints(c.in); got != c.want {
			t.Errorf("RoundPoints(%s): expected %d, got %d", c.in, c.want, got)
		}
	}
}

func TestRoundMoney_TwoDecimalPlaces(t *testing.T) {
	decEqual(t, dec(10.13), engine.RoundMoney(dec(10.125)), "half rounds away from zero")
	decEqual(t, dec(10.12), engine.RoundMoney(dec(10.124)), "below half rounds down")
}
