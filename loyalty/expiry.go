/*
expiry.go - Daily point-expiry sweep

PURPOSE:
  Expires loyalty points in two passes per customer:

  1. Inactivity: a customer not seen within the inactivity period loses
     their entire balance in one manual_subtract entry.

  2. FIFO lifespan: oldest-earned points are considered spent first.
     All debit entries (redeemed, manual_subtract) form a running pool
     that is consumed against credits oldest-first; whatever unspent
     remainder of a credit has outlived the points lifespan expires.
     One manual_subtract entry records the total, clamped so the balance
     never goes negative.

DAILY GUARD:
  The sweep runs at most once per calendar day. The last-run date is
  persisted in the store, so restarts and extra scheduler ticks within
  the same day are no-ops.

SEE ALSO:
  - ledger.go: the entry writer used for the expiry debits
  - ../api/scheduler.go: the ticker that triggers the sweep
*/
package loyalty

import (
	"context"
	"log"
	"time"

	"github.com/warp/pos-engine/engine"
)

const lastRunConfigKey = "loyalty_expiry_last_run"

const (
	ReasonInactivity = "inactivity"
	ReasonExpired    = "points expired"
)

// =============================================================================
// SWEEPER
// =============================================================================

// Sweeper runs the point-expiry pass over every customer.
type Sweeper struct {
	Store    engine.Store
	Ledger   *Ledger
	Settings func() engine.ExpirySettings

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func NewSweeper(store engine.Store, ledger *Ledger, settings func() engine.ExpirySettings) *Sweeper {
	return &Sweeper{Store: store, Ledger: ledger, Settings: settings, Now: time.Now}
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Skipped        bool  // already ran today, or expiry disabled
	CustomersSwept int   // customers holding points that were examined
	InactiveZeroed int   // customers zeroed by the inactivity rule
	PointsExpired  int64 // total points removed across both rules
}

// Run executes the sweep once for the current calendar day.
func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	settings := s.Settings()
	if !settings.Enabled {
		return SweepResult{Skipped: true}, nil
	}

	today := engine.DateOf(s.Now())
	var result SweepResult

	err := s.Store.WithTx(ctx, func(tx engine.Tx) error {
		last, err := tx.Config(ctx, lastRunConfigKey)
		if err != nil {
			return err
		}
		if string(last) == today.String() {
			result.Skipped = true
			return nil
		}

		customers, err := tx.Customers(ctx)
		if err != nil {
			return err
		}

		inactivityCutoff := settings.InactivityPeriod.StartBefore(today)

		for i := range customers {
			c := customers[i]
			if c.LoyaltyPoints <= 0 {
				continue
			}
			result.CustomersSwept++

			// Rule 1: full forfeit after prolonged inactivity.
			if !settings.InactivityPeriod.IsZero() && engine.DateOf(c.LastSeen).Before(inactivityCutoff) {
				forfeited := c.LoyaltyPoints
				if err := s.Ledger.Adjust(ctx, tx, &c, -forfeited, ReasonInactivity, today); err != nil {
					return err
				}
				if err := tx.PutCustomer(ctx, c); err != nil {
					return err
				}
				result.InactiveZeroed++
				result.PointsExpired += forfeited
				continue
			}

			// Rule 2: FIFO lifespan expiry of unspent old credits.
			if settings.PointsLifespan.IsZero() {
				continue
			}
			expired, err := s.lifespanExpiry(ctx, tx, &c, settings.PointsLifespan, today)
			if err != nil {
				return err
			}
			if expired > 0 {
				if err := tx.PutCustomer(ctx, c); err != nil {
					return err
				}
				result.PointsExpired += expired
			}
		}

		return tx.SetConfig(ctx, lastRunConfigKey, []byte(today.String()))
	})
	if err != nil {
		return SweepResult{}, err
	}

	if !result.Skipped {
		log.Printf("[Expiry] swept %d customers: %d zeroed for inactivity, %d points expired",
			result.CustomersSwept, result.InactiveZeroed, result.PointsExpired)
	}
	return result, nil
}

// lifespanExpiry walks the customer's credits oldest-first, consuming the
// accumulated debit pool against each credit before checking its age.
// A single forward pass with a running pool; no per-credit rescans.
func (s *Sweeper) lifespanExpiry(ctx context.Context, tx engine.Tx, c *engine.Customer, lifespan engine.Window, today engine.Date) (int64, error) {
	entries, err := tx.LoyaltyEntries(ctx, c.ID)
	if err != nil {
		return 0, err
	}

	var debitPool int64
	for _, e := range entries {
		if !e.Type.Credits() {
			debitPool += e.Points
		}
	}

	var toExpire int64
	for _, e := range entries {
		if !e.Type.Credits() {
			continue
		}
		consumed := e.Points
		if consumed > debitPool {
			consumed = debitPool
		}
		debitPool -= consumed

		remainder := e.Points - consumed
		if remainder > 0 && lifespan.EndAfter(e.Date).BeforeOrEqual(today) {
			toExpire += remainder
		}
	}

	if toExpire == 0 {
		return 0, nil
	}
	// Clamp: the ledger may contain entries for a sale since reversed.
	if toExpire > c.LoyaltyPoints {
		toExpire = c.LoyaltyPoints
	}
	if err := s.Ledger.Adjust(ctx, tx, c, -toExpire, ReasonExpired, today); err != nil {
		return 0, err
	}
	return toExpire, nil
}
