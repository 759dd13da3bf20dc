package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/engine"
)

// =============================================================================
// TIER EVALUATION TESTS
// =============================================================================

func testTiers() *engine.TierSet {
	sixMonths := engine.Window{Value: 6, Unit: engine.UnitMonths}
	// Deliberately unsorted; the constructor sorts by rank descending.
	return engine.NewTierSet([]engine.Tier{
		{ID: "silver", Name: "Silver", MinVisits: 3, MinSpend: dec(5000), Window: sixMonths, PointsMultiplier: dec(1.25), Rank: 1},
		{ID: "gold", Name: "Gold", MinVisits: 6, MinSpend: dec(15000), Window: sixMonths, PointsMultiplier: dec(1.5), Rank: 2},
		{ID: "base", Name: "Base", MinVisits: 0, MinSpend: decimal.Zero, Window: sixMonths, PointsMultiplier: dec(1), Rank: 0},
	})
}

func saleOn(d engine.Date, total float64) engine.TierSale {
	return engine.TierSale{Date: d, Total: dec(total)}
}

func TestTierSet_Evaluate_HighestRankFirst(t *testing.T) {
	// GIVEN: A customer with 6 recent visits totalling 18000
	// WHEN: Evaluating against base/silver/gold
	// THEN: Gold wins even though silver's thresholds are also met

	now := engine.NewDate(2025, time.July, 1)
	var sales []engine.TierSale
	for i := 0; i < 6; i++ {
		sales = append(sales, saleOn(now.AddDays(-7*(i+1)), 3000))
	}

	tierID, ok := testTiers().Evaluate(now, sales, 0)
	if !ok {
		t.Fatal("expected a tier to match")
	}
	if tierID != "gold" {
		t.Errorf("expected gold, got %s", tierID)
	}
}

func TestTierSet_Evaluate_BothThresholdsRequired(t *testing.T) {
	// GIVEN: Plenty of spend but too few visits for silver
	// WHEN: Evaluating
	// THEN: The customer stays on the base tier

	now := engine.NewDate(2025, time.July, 1)
	sales := []engine.TierSale{
		saleOn(now.AddDays(-10), 6000),
		saleOn(now.AddDays(-20), 6000),
	}

	tierID, ok := testTiers().Evaluate(now, sales, 0)
	if !ok {
		t.Fatal("expected a tier to match")
	}
	if tierID != "base" {
		t.Errorf("two visits should not reach silver, got %s", tierID)
	}
}

func TestTierSet_Evaluate_WindowExcludesOldSales(t *testing.T) {
	// GIVEN: Qualifying activity that all happened seven months ago
	// WHEN: Evaluating against six-month windows
	// THEN: The old sales fall outside every window

	now := engine.NewDate(2025, time.July, 1)
	old := now.AddMonths(-7)
	sales := []engine.TierSale{
		saleOn(old, 6000), saleOn(old, 6000), saleOn(old, 6000),
	}

	tierID, ok := testTiers().Evaluate(now, sales, 0)
	if !ok {
		t.Fatal("expected a tier to match")
	}
	if tierID != "base" {
		t.Errorf("sales outside the window should not count, got %s", tierID)
	}
}

func TestTierSet_Evaluate_WindowBoundaryInclusive(t *testing.T) {
	// GIVEN: Three qualifying sales exactly on the window start day
	// WHEN: Evaluating
	// THEN: On-boundary sales count

	now := engine.NewDate(2025, time.July, 1)
	boundary := now.AddMonths(-6)
	sales := []engine.TierSale{
		saleOn(boundary, 2000), saleOn(boundary, 2000), saleOn(boundary, 2000),
	}

	tierID, _ := testTiers().Evaluate(now, sales, 0)
	if tierID != "silver" {
		t.Errorf("boundary sales should count toward silver, got %s", tierID)
	}
}

func TestTierSet_Evaluate_ManualVisitAdjustment(t *testing.T) {
	// GIVEN: Two real visits and a manual adjustment of +1
	// WHEN: Evaluating against silver (3 visits, 5000 spend)
	// THEN: The adjustment supplies the missing visit

	now := engine.NewDate(2025, time.July, 1)
	sales := []engine.TierSale{
		saleOn(now.AddDays(-10), 3000),
		saleOn(now.AddDays(-20), 3000),
	}

	tierID, _ := testTiers().Evaluate(now, sales, 1)
	if tierID != "silver" {
		t.Errorf("manual visit adjustment should lift the customer to silver, got %s", tierID)
	}
}

func TestTierSet_Evaluate_NoMatchWithoutBaseTier(t *testing.T) {
	// GIVEN: A tier set with no zero-threshold tier
	// WHEN: Evaluating a customer with no activity
	// THEN: No tier matches

	tiers := engine.NewTierSet([]engine.Tier{
		{ID: "silver", MinVisits: 3, MinSpend: dec(5000), Window: engine.Window{Value: 6, Unit: engine.UnitMonths}, PointsMultiplier: dec(1.25), Rank: 1},
	})

	if _, ok := tiers.Evaluate(engine.NewDate(2025, time.July, 1), nil, 0); ok {
		t.Error("a customer with no activity should match no tier")
	}
}

func TestTierSet_ByID(t *testing.T) {
	tiers := testTiers()
	if tier, ok := tiers.ByID("gold"); !ok || !tier.PointsMultiplier.Equal(dec(1.5)) {
		t.Errorf("ByID(gold): ok=%v tier=%+v", ok, tier)
	}
	if _, ok := tiers.ByID("platinum"); ok {
		t.Error("unknown tier id should not resolve")
	}
}
