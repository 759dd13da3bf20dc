/*
Package loyalty maintains the customer loyalty-point ledger.

PURPOSE:
  Wraps the raw ledger rows with the write rules the engine depends on:
  every entry carries points-before/points-after, the stored magnitude is
  never negative, and no write may drive a customer's balance below zero.

LEDGER SHAPE:
  Four entry types:
    earned          credit, tied to a sale
    redeemed        debit, tied to a sale
    manual_add      credit, admin adjustment (reason required)
    manual_subtract debit, admin adjustment or expiry (reason required)

  Invariant per row: PointsAfter == PointsBefore +/- Points.

CORRECTIONS:
  Manual adjustments are the correction mechanism; history is preserved.
  The one exception is RemoveSale: full sale reversal deletes the entries
  that reference the reversed sale instead of writing compensating rows.

SEE ALSO:
  - expiry.go: inactivity and FIFO lifespan expiry sweep
  - ../sale: settlement orchestration that drives these writes
*/
package loyalty

import (
	"context"

	"github.com/google/uuid"

	"github.com/warp/pos-engine/engine"
)

// =============================================================================
// LEDGER - Loyalty write operations within a unit of work
// =============================================================================

// Ledger performs loyalty writes against a transaction. It mutates the
// passed customer's LoyaltyPoints in step with the appended entries;
// persisting the customer remains the caller's job.
type Ledger struct{}

func NewLedger() *Ledger { return &Ledger{} }

// Earn credits points from a sale.
func (l *Ledger) Earn(ctx context.Context, tx engine.Tx, c *engine.Customer, points int64, saleID string, on engine.Date) error {
	if points <= 0 {
		return nil
	}
	return l.append(ctx, tx, c, engine.LoyaltyEntry{
		Type:        engine.EntryEarned,
		Points:      points,
		RelatedSale: saleID,
	}, on)
}

// Redeem debits points spent against a sale.
func (l *Ledger) Redeem(ctx context.Context, tx engine.Tx, c *engine.Customer, points int64, saleID string, on engine.Date) error {
	if points <= 0 {
		return nil
	}
	if points > c.LoyaltyPoints {
		return &engine.InsufficientPointsError{Requested: points, Available: c.LoyaltyPoints}
	}
	return l.append(ctx, tx, c, engine.LoyaltyEntry{
		Type:        engine.EntryRedeemed,
		Points:      points,
		RelatedSale: saleID,
	}, on)
}

// Adjust applies a signed manual correction. Reason is mandatory and the
// resulting balance must stay non-negative.
func (l *Ledger) Adjust(ctx context.Context, tx engine.Tx, c *engine.Customer, delta int64, reason string, on engine.Date) error {
	if reason == "" {
		return engine.ErrReasonRequired
	}
	if delta == 0 {
		return nil
	}
	entry := engine.LoyaltyEntry{Reason: reason}
	if delta > 0 {
		entry.Type = engine.EntryManualAdd
		entry.Points = delta
	} else {
		entry.Type = engine.EntryManualSubtract
		entry.Points = -delta
		if entry.Points > c.LoyaltyPoints {
			return engine.ErrNegativePoints
		}
	}
	return l.append(ctx, tx, c, entry, on)
}

// RemoveSale deletes the ledger rows referencing a fully reversed sale and
// rolls the customer's balance back to its pre-sale value.
//
// This contradicts the append-only design everywhere else in this package:
// the reversal compensates by deletion, not by a compensating entry, so the
// audit trail loses the earn/redeem pair while the observable balance ends
// at the same value either way.
func (l *Ledger) RemoveSale(ctx context.Context, tx engine.Tx, c *engine.Customer, s engine.Sale) error {
	restored := c.LoyaltyPoints - s.PointsEarned + s.RedeemedPoints
	if restored < 0 {
		// Points were already spent or expired elsewhere; clamp rather
		// than leave the customer negative.
		restored = 0
	}
	if err := tx.DeleteLoyaltyBySale(ctx, s.ID); err != nil {
		return err
	}
	c.LoyaltyPoints = restored
	return nil
}

func (l *Ledger) append(ctx context.Context, tx engine.Tx, c *engine.Customer, entry engine.LoyaltyEntry, on engine.Date) error {
	entry.ID = uuid.NewString()
	entry.CustomerID = c.ID
	entry.Date = on
	entry.PointsBefore = c.LoyaltyPoints
	if entry.Type.Credits() {
		entry.PointsAfter = entry.PointsBefore + entry.Points
	} else {
		entry.PointsAfter = entry.PointsBefore - entry.Points
	}
	if entry.PointsAfter < 0 {
		return engine.ErrNegativePoints
	}
	if err := tx.AppendLoyalty(ctx, entry); err != nil {
		return err
	}
	c.LoyaltyPoints = entry.PointsAfter
	return nil
}
