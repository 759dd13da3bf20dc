/*
config.go - Engine configuration snapshot

PURPOSE:
  Holds the currently active rule sets (tiers, earning brackets, the
  redemption rule, promotions, expiry settings). Each set is sorted and
  wrapped once when replaced, so per-sale lookups never re-sort.

  Replacement goes through the Ledger's Update* operations, which persist
  the new set as a JSON blob in the store and swap the snapshot after the
  commit succeeds.
*/
package sale

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/warp/pos-engine/engine"
)

// Config blob names in the store.
const (
	configTiers      = "customer_tiers"
	configEarning    = "earning_rules"
	configRedemption = "redemption_rule"
	configPromotions = "promotions"
	configExpiry     = "expiry_settings"
)

// Config is the mutable holder of the active configuration. Reads take a
// shared lock; replacement takes the exclusive lock. Lookup structures are
// built on replacement, not on read.
type Config struct {
	mu         sync.RWMutex
	tiers      *engine.TierSet
	earning    *engine.EarningRules
	promotions *engine.Promotions
	redemption engine.RedemptionRule
	expiry     engine.ExpirySettings
}

func NewConfig() *Config {
	return &Config{
		tiers:      engine.NewTierSet(nil),
		earning:    engine.NewEarningRules(nil),
		promotions: engine.NewPromotions(nil),
	}
}

// Load reads every stored configuration blob. Missing blobs keep their
// zero defaults (no tiers, no rules, expiry disabled).
func (c *Config) Load(ctx context.Context, store engine.Store) error {
	var tiers []engine.Tier
	if err := loadBlob(ctx, store, configTiers, &tiers); err != nil {
		return err
	}
	var rules []engine.EarningRule
	if err := loadBlob(ctx, store, configEarning, &rules); err != nil {
		return err
	}
	var promos []engine.Promotion
	if err := loadBlob(ctx, store, configPromotions, &promos); err != nil {
		return err
	}
	var redemption engine.RedemptionRule
	if err := loadBlob(ctx, store, configRedemption, &redemption); err != nil {
		return err
	}
	var expiry engine.ExpirySettings
	if err := loadBlob(ctx, store, configExpiry, &expiry); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers = engine.NewTierSet(tiers)
	c.earning = engine.NewEarningRules(rules)
	c.promotions = engine.NewPromotions(promos)
	c.redemption = redemption
	c.expiry = expiry
	return nil
}

func loadBlob(ctx context.Context, store engine.Store, name string, out any) error {
	raw, err := store.Config(ctx, name)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("corrupt config %q: %w", name, err)
	}
	return nil
}

// Accessors

func (c *Config) Tiers() *engine.TierSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tiers
}

func (c *Config) EarningRules() *engine.EarningRules {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.earning
}

func (c *Config) Promotions() *engine.Promotions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.promotions
}

func (c *Config) Redemption() engine.RedemptionRule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redemption
}

func (c *Config) Expiry() engine.ExpirySettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiry
}

// Replacement (called by the Ledger after the persisting commit succeeds)

func (c *Config) setTiers(ts *engine.TierSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers = ts
}

func (c *Config) setEarning(er *engine.EarningRules) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.earning = er
}

func (c *Config) setPromotions(ps *engine.Promotions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promotions = ps
}

func (c *Config) setRedemption(r engine.RedemptionRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redemption = r
}

func (c *Config) setExpiry(s engine.ExpirySettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiry = s
}
