package sale

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/engine"
)

// NormalizeCode turns a caller-supplied customer code (typically a vehicle
// number) into the canonical customer identifier: all whitespace stripped,
// upper-cased. "ka 01 ab 1234" and "KA01AB1234" are the same customer.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// customerSales loads a customer's surviving sale records in insertion order.
// Dangling sale ids (reversed sales racing a stale reference) are skipped.
func customerSales(ctx context.Context, r engine.Reader, c *engine.Customer) ([]engine.Sale, error) {
	sales := make([]engine.Sale, 0, len(c.SaleIDs))
	for _, id := range c.SaleIDs {
		s, err := r.Sale(ctx, id)
		if err != nil {
			if engine.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, nil
}

// resumBalance recomputes the customer's balance as the full sum of
// balance due across every surviving sale. A full resum, not an
// incremental delta: edits and reversals change history, so the balance
// is rebuilt from it. Floored at zero to keep the invariant.
func resumBalance(ctx context.Context, r engine.Reader, c *engine.Customer) error {
	sales, err := customerSales(ctx, r, c)
	if err != nil {
		return err
	}
	balance := decimal.Zero
	for _, s := range sales {
		balance = balance.Add(s.BalanceDue)
	}
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	c.Balance = balance
	return nil
}

// reevaluateTier runs the tier evaluator for one customer against the
// given tier set and sale history. Only a changed result mutates the
// customer; an unchanged tier is an idempotent no-op.
func reevaluateTier(ctx context.Context, r engine.Reader, tiers *engine.TierSet, c *engine.Customer, now engine.Date) (bool, error) {
	sales, err := customerSales(ctx, r, c)
	if err != nil {
		return false, err
	}
	views := make([]engine.TierSale, len(sales))
	for i, s := range sales {
		views[i] = engine.TierSale{Date: engine.DateOf(s.CreatedAt), Total: s.Total}
	}
	tierID, ok := tiers.Evaluate(now, views, c.ManualVisitAdjustment)
	if !ok || tierID == c.TierID {
		return false, nil
	}
	c.TierID = tierID
	return true, nil
}
