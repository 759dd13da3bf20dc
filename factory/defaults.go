/*
Package factory provides default configuration presets.

PURPOSE:
  Seeds a fresh installation with a working rule set so the engine is
  usable before an administrator configures anything. Presets live here,
  not in the domain packages, so shops can replace them wholesale through
  the configuration endpoints without code changes.

DEFAULTS:
  - A rank-0 base tier with zero thresholds, so tier evaluation always
    resolves to something, plus silver and gold tiers on six-month
    rolling windows.
  - Three earning brackets covering all spend from zero up, no gaps.
  - A 1-point-per-currency-unit fixed redemption rule.
  - Expiry disabled until explicitly enabled.

SEE ALSO:
  - sale/config.go: how configuration is loaded and replaced
  - cmd/server/main.go: where the seed is applied on first run
*/
package factory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/engine"
	"github.com/warp/pos-engine/sale"
)

// BaseTierID is the id of the always-matching rank-0 tier.
const BaseTierID = "base"

// DefaultTiers returns the preset tier ladder. The base tier has zero
// thresholds and multiplier 1; higher tiers use six-month rolling windows.
func DefaultTiers() []engine.Tier {
	sixMonths := engine.Window{Value: 6, Unit: engine.UnitMonths}
	return []engine.Tier{
		{
			ID:               BaseTierID,
			Name:             "Base",
			MinVisits:        0,
			MinSpend:         decimal.Zero,
			Window:           sixMonths,
			PointsMultiplier: decimal.NewFromInt(1),
			Rank:             0,
		},
		{
			ID:               "silver",
			Name:             "Silver",
			MinVisits:        3,
			MinSpend:         decimal.NewFromInt(5000),
			Window:           sixMonths,
			PointsMultiplier: decimal.NewFromFloat(1.25),
			Rank:             1,
		},
		{
			ID:               "gold",
			Name:             "Gold",
			MinVisits:        6,
			MinSpend:         decimal.NewFromInt(15000),
			Window:           sixMonths,
			PointsMultiplier: decimal.NewFromFloat(1.5),
			Rank:             2,
		},
	}
}

// DefaultEarningRules returns contiguous spend brackets from zero up.
func DefaultEarningRules() []engine.EarningRule {
	max1 := decimal.NewFromInt(500)
	max2 := decimal.NewFromInt(1000)
	return []engine.EarningRule{
		{MinSpend: decimal.Zero, MaxSpend: &max1, PointsPerHundred: decimal.NewFromInt(1)},
		{MinSpend: decimal.NewFromInt(501), MaxSpend: &max2, PointsPerHundred: decimal.NewFromFloat(1.5)},
		{MinSpend: decimal.NewFromInt(1001), MaxSpend: nil, PointsPerHundred: decimal.NewFromInt(2)},
	}
}

// DefaultRedemptionRule values every point at one currency unit.
func DefaultRedemptionRule() engine.RedemptionRule {
	return engine.RedemptionRule{
		Method: engine.RedeemFixedValue,
		Points: 1,
		Value:  decimal.NewFromInt(1),
	}
}

// DefaultExpirySettings ships disabled with sensible periods filled in.
func DefaultExpirySettings() engine.ExpirySettings {
	return engine.ExpirySettings{
		Enabled:          false,
		InactivityPeriod: engine.Window{Value: 12, Unit: engine.UnitMonths},
		PointsLifespan:   engine.Window{Value: 24, Unit: engine.UnitMonths},
		ReminderPeriod:   engine.Window{Value: 1, Unit: engine.UnitMonths},
	}
}

// SeedIfEmpty applies the presets for any configuration blob not yet
// stored. Existing configuration is never overwritten.
func SeedIfEmpty(ctx context.Context, store engine.Store, ledger *sale.Ledger) error {
	type seed struct {
		name  string
		apply func() error
	}
	seeds := []seed{
		{"customer_tiers", func() error { return ledger.UpdateCustomerTiers(ctx, DefaultTiers()) }},
		{"earning_rules", func() error { return ledger.UpdateEarningRules(ctx, DefaultEarningRules()) }},
		{"redemption_rule", func() error { return ledger.UpdateRedemptionRule(ctx, DefaultRedemptionRule()) }},
		{"expiry_settings", func() error { return ledger.UpdateLoyaltyExpirySettings(ctx, DefaultExpirySettings()) }},
	}
	for _, s := range seeds {
		raw, err := store.Config(ctx, s.name)
		if err != nil {
			return err
		}
		if raw != nil {
			continue
		}
		if err := s.apply(); err != nil {
			return err
		}
	}
	return nil
}
