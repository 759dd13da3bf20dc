/*
Package sale orchestrates the sale lifecycle: creation, editing, and
reversal, plus customer payments, manual point adjustments, and
configuration replacement.

PURPOSE:
  This is the composition root of the settlement engine. One logical
  operation here touches up to three ledgers (product stock, customer
  balance, loyalty points); every lifecycle method stages its writes
  inside a single store transaction so all three end consistent or none
  change at all.

ORDERING:
  Validation always runs before mutation. Stock sufficiency is checked
  for every cart line before any line is deducted; redemption is resolved
  before any loyalty write; a failed step aborts the whole transaction.

CONCURRENCY:
  The engine assumes a single logical writer. A process-level mutex
  serializes lifecycle operations; the store transaction underneath makes
  each of them atomic, so adapting to a multi-writer store only requires
  real transaction isolation in the Store implementation.

SEE ALSO:
  - pricing.go: the shared totals pipeline
  - ../loyalty: ledger writes and expiry
  - ../engine: calculators and record types
*/
package sale

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/engine"
	"github.com/warp/pos-engine/loyalty"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the sale lifecycle orchestrator.
type Ledger struct {
	store   engine.Store
	loyalty *loyalty.Ledger
	config  *Config

	// mu serializes lifecycle operations: single logical writer.
	mu sync.Mutex

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func NewLedger(store engine.Store, config *Config) *Ledger {
	return &Ledger{
		store:   store,
		loyalty: loyalty.NewLedger(),
		config:  config,
		Now:     time.Now,
	}
}

// Config exposes the active configuration snapshot.
func (l *Ledger) Config() *Config { return l.config }

// Store exposes the backing store for read-only API surfaces.
func (l *Ledger) Store() engine.Store { return l.store }

// =============================================================================
// INPUT TYPES
// =============================================================================

// CartLine is one line of an incoming cart. Manual lines are synthetic:
// not backed by an inventory product and never touching stock. For
// product-backed lines a zero Price falls back to the product's sale price.
type CartLine struct {
	ProductID    string              `json:"productId,omitempty"`
	Name         string              `json:"name,omitempty"`
	Quantity     int                 `json:"quantity"`
	Price        decimal.Decimal     `json:"price"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountType engine.DiscountType `json:"discountType"`
	Manual       bool                `json:"manual"`
}

type CreateSaleInput struct {
	Items           []CartLine          `json:"items"`
	OverallDiscount decimal.Decimal     `json:"overallDiscount"`
	DiscountType    engine.DiscountType `json:"discountType"`
	CustomerCode    string              `json:"customerCode"`
	CustomerName    string              `json:"customerName,omitempty"`
	CustomerContact string              `json:"customerContact,omitempty"`
	RedeemedPoints  int64               `json:"redeemedPoints"`
	TuningCharges   decimal.Decimal     `json:"tuningCharges"`
	LaborCharges    decimal.Decimal     `json:"laborCharges"`
	AmountPaid      decimal.Decimal     `json:"amountPaid"`
}

type UpdateSaleInput struct {
	Items           []CartLine          `json:"items"`
	OverallDiscount decimal.Decimal     `json:"overallDiscount"`
	DiscountType    engine.DiscountType `json:"discountType"`
	TuningCharges   decimal.Decimal     `json:"tuningCharges"`
	LaborCharges    decimal.Decimal     `json:"laborCharges"`
}

// =============================================================================
// CREATE
// =============================================================================

// CreateSale settles a cart into a finalized sale in one atomic step.
// There is no intermediate state: the sale record, stock deductions,
// customer update, and loyalty entries commit together or not at all.
func (l *Ledger) CreateSale(ctx context.Context, in CreateSaleInput) (engine.Sale, error) {
	if len(in.Items) == 0 && in.TuningCharges.IsZero() && in.LaborCharges.IsZero() {
		return engine.Sale{}, engine.ErrEmptyCart
	}
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return engine.Sale{}, fmt.Errorf("line %q: quantity %d: %w", line.Name, line.Quantity, engine.ErrInvalidAmount)
		}
	}
	code := NormalizeCode(in.CustomerCode)
	if code == "" {
		return engine.Sale{}, engine.ErrCustomerCodeRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Now()
	today := engine.DateOf(now)

	var created engine.Sale
	err := l.store.WithTx(ctx, func(tx engine.Tx) error {
		// Resolve cart lines against inventory and check every line's
		// stock before deducting any of them.
		items, deductions, err := l.resolveCart(ctx, tx, in.Items)
		if err != nil {
			return err
		}

		t := computeTotals(items, in.OverallDiscount, in.DiscountType, in.TuningCharges, in.LaborCharges)

		id, err := l.newSaleID(ctx, tx, now)
		if err != nil {
			return err
		}

		customer, isNew, err := l.resolveCustomer(ctx, tx, code, in, now)
		if err != nil {
			return err
		}

		previousBalance := decimal.Zero
		if !isNew {
			previousBalance = customer.Balance
		}
		totalBeforeLoyalty := t.CartTotal.Add(previousBalance)

		// Redemption by a known customer, capped to the bill. A request
		// exceeding the available points is ignored, not failed: the sale
		// proceeds without the discount.
		redeemed := in.RedeemedPoints
		loyaltyDiscount := decimal.Zero
		if redeemed > 0 {
			if isNew || redeemed > customer.LoyaltyPoints {
				redeemed = 0
			} else {
				loyaltyDiscount, err = l.config.Redemption().Discount(redeemed, customer.LoyaltyPoints, totalBeforeLoyalty)
				if err != nil {
					return err
				}
			}
		}

		total := engine.RoundMoney(totalBeforeLoyalty.Sub(loyaltyDiscount))
		balanceDue := engine.RoundMoney(total.Sub(in.AmountPaid))
		status := paymentStatusFor(balanceDue, in.AmountPaid)

		pointsEarned, tierApplied, promoApplied := l.earnPoints(t.Subtotal, &customer, isNew, today)

		// Deduct stock; sufficiency was proven above.
		for _, d := range deductions {
			d.product.Quantity -= d.quantity
			if err := tx.PutProduct(ctx, d.product); err != nil {
				return err
			}
		}

		// Loyalty ledger writes: earn, then redeem.
		if err := l.loyalty.Earn(ctx, tx, &customer, pointsEarned, id, today); err != nil {
			return err
		}
		if redeemed > 0 {
			if err := l.loyalty.Redeem(ctx, tx, &customer, redeemed, id, today); err != nil {
				return err
			}
		}

		customer.SaleIDs = append(customer.SaleIDs, id)
		customer.LastSeen = now
		if balanceDue.GreaterThan(decimal.Zero) {
			customer.Balance = balanceDue
		} else {
			customer.Balance = decimal.Zero
		}

		created = engine.Sale{
			ID:                 id,
			CustomerID:         customer.ID,
			Items:              t.Items,
			Subtotal:           t.Subtotal,
			TotalItemDiscounts: t.ItemDiscounts,
			OverallDiscount:    in.OverallDiscount,
			OverallDiscType:    in.DiscountType,
			TuningCharges:      in.TuningCharges,
			LaborCharges:       in.LaborCharges,
			PreviousBalance:    previousBalance,
			LoyaltyDiscount:    loyaltyDiscount,
			Total:              total,
			AmountPaid:         in.AmountPaid,
			BalanceDue:         balanceDue,
			PaymentStatus:      status,
			PointsEarned:       pointsEarned,
			RedeemedPoints:     redeemed,
			PromotionApplied:   promoApplied,
			TierApplied:        tierApplied,
			FinalLoyaltyPoints: customer.LoyaltyPoints,
			CreatedAt:          now,
		}
		if err := tx.PutSale(ctx, created); err != nil {
			return err
		}

		// Re-evaluate the tier against the history including this sale.
		if _, err := reevaluateTier(ctx, tx, l.config.Tiers(), &customer, today); err != nil {
			return err
		}
		return tx.PutCustomer(ctx, customer)
	})
	if err != nil {
		return engine.Sale{}, err
	}
	return created, nil
}

type deduction struct {
	product  engine.Product
	quantity int
}

// resolveCart snapshots cart lines into sale items and gathers the stock
// deductions. Every product reference must resolve, and demand is summed
// per product so duplicate lines are validated against their combined
// quantity, not line by line; nothing is deducted here.
func (l *Ledger) resolveCart(ctx context.Context, tx engine.Tx, lines []CartLine) ([]engine.SaleItem, []deduction, error) {
	items := make([]engine.SaleItem, 0, len(lines))
	byProduct := make(map[string]*deduction)
	var order []string

	for _, line := range lines {
		item := engine.SaleItem{
			Name:          line.Name,
			Quantity:      line.Quantity,
			OriginalPrice: line.Price,
			Discount:      line.Discount,
			DiscountType:  line.DiscountType,
			Manual:        line.Manual,
		}
		if !line.Manual {
			d, ok := byProduct[line.ProductID]
			if !ok {
				p, err := tx.Product(ctx, line.ProductID)
				if err != nil {
					return nil, nil, err
				}
				d = &deduction{product: p}
				byProduct[line.ProductID] = d
				order = append(order, line.ProductID)
			}
			d.quantity += line.Quantity
			if d.product.Quantity < d.quantity {
				return nil, nil, &engine.InsufficientStockError{
					ProductID: d.product.ID,
					Name:      d.product.Name,
					Requested: d.quantity,
					Available: d.product.Quantity,
				}
			}
			item.ProductID = d.product.ID
			item.PurchasePrice = d.product.PurchasePrice
			if item.Name == "" {
				item.Name = d.product.Name
			}
			if item.OriginalPrice.IsZero() {
				item.OriginalPrice = d.product.SalePrice
			}
		}
		items = append(items, item)
	}

	deductions := make([]deduction, 0, len(order))
	for _, id := range order {
		deductions = append(deductions, *byProduct[id])
	}
	return items, deductions, nil
}

// newSaleID formats the current instant as a fixed-width digit string and
// resolves collisions with an increasing numeric suffix.
func (l *Ledger) newSaleID(ctx context.Context, tx engine.Tx, now time.Time) (string, error) {
	base := now.Format("20060102150405")
	id := base
	for i := 1; ; i++ {
		exists, err := tx.SaleExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
		id = fmt.Sprintf("%s%d", base, i)
	}
}

func (l *Ledger) resolveCustomer(ctx context.Context, tx engine.Tx, code string, in CreateSaleInput, now time.Time) (engine.Customer, bool, error) {
	customer, err := tx.Customer(ctx, code)
	switch {
	case err == nil:
		if in.CustomerName != "" {
			customer.Name = in.CustomerName
		}
		if in.CustomerContact != "" {
			customer.Contact = in.CustomerContact
		}
		return customer, false, nil
	case engine.IsNotFound(err):
		return engine.Customer{
			ID:        code,
			Name:      in.CustomerName,
			Contact:   in.CustomerContact,
			FirstSeen: now,
			LastSeen:  now,
			Balance:   decimal.Zero,
		}, true, nil
	default:
		return engine.Customer{}, false, err
	}
}

// earnPoints computes the points for a sale subtotal: earning bracket
// rate, then the customer's tier multiplier when above 1, then any active
// promotion multiplier, rounded once at the end.
func (l *Ledger) earnPoints(subtotal decimal.Decimal, customer *engine.Customer, isNew bool, today engine.Date) (points int64, tierApplied, promoApplied string) {
	if !subtotal.GreaterThan(decimal.Zero) {
		return 0, "", ""
	}
	rule, ok := l.config.EarningRules().Match(subtotal)
	if !ok {
		return 0, "", ""
	}
	pts := rule.BasePoints(subtotal)

	if !isNew && customer.TierID != "" {
		if tier, found := l.config.Tiers().ByID(customer.TierID); found && tier.PointsMultiplier.GreaterThan(decimal.NewFromInt(1)) {
			pts = pts.Mul(tier.PointsMultiplier)
			tierApplied = tier.ID
		}
	}
	if promo, active := l.config.Promotions().ActiveOn(today); active {
		pts = pts.Mul(promo.Multiplier)
		promoApplied = promo.Name
	}
	return engine.RoundPoints(pts), tierApplied, promoApplied
}

// =============================================================================
// EDIT
// =============================================================================

// UpdateSale recomputes a sale's financial fields from an edited item
// list using the same pipeline as creation. The balance brought forward
// and the loyalty discount are preserved, not renegotiated; the owning
// customer's balance is rebuilt as a full resum over their sales.
// Stock is not touched on edit.
func (l *Ledger) UpdateSale(ctx context.Context, saleID string, in UpdateSaleInput) (engine.Sale, error) {
	if len(in.Items) == 0 && in.TuningCharges.IsZero() && in.LaborCharges.IsZero() {
		return engine.Sale{}, engine.ErrEmptyCart
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var updated engine.Sale
	err := l.store.WithTx(ctx, func(tx engine.Tx) error {
		s, err := tx.Sale(ctx, saleID)
		if err != nil {
			return err
		}

		items, err := l.snapshotEditedLines(ctx, tx, in.Items)
		if err != nil {
			return err
		}
		t := computeTotals(items, in.OverallDiscount, in.DiscountType, in.TuningCharges, in.LaborCharges)

		s.Items = t.Items
		s.Subtotal = t.Subtotal
		s.TotalItemDiscounts = t.ItemDiscounts
		s.OverallDiscount = in.OverallDiscount
		s.OverallDiscType = in.DiscountType
		s.TuningCharges = in.TuningCharges
		s.LaborCharges = in.LaborCharges
		s.Total = engine.RoundMoney(t.CartTotal.Add(s.PreviousBalance).Sub(s.LoyaltyDiscount))
		s.BalanceDue = engine.RoundMoney(s.Total.Sub(s.AmountPaid))
		s.PaymentStatus = paymentStatusFor(s.BalanceDue, s.AmountPaid)

		if err := tx.PutSale(ctx, s); err != nil {
			return err
		}

		customer, err := tx.Customer(ctx, s.CustomerID)
		if err != nil {
			return err
		}
		if err := resumBalance(ctx, tx, &customer); err != nil {
			return err
		}
		if err := tx.PutCustomer(ctx, customer); err != nil {
			return err
		}
		updated = s
		return nil
	})
	if err != nil {
		return engine.Sale{}, err
	}
	return updated, nil
}

// snapshotEditedLines rebuilds sale items for an edit. Product-backed
// lines re-snapshot purchase price and name from inventory when the
// product still exists; a deleted product leaves a dangling weak
// reference and the line keeps the caller-supplied values.
func (l *Ledger) snapshotEditedLines(ctx context.Context, tx engine.Tx, lines []CartLine) ([]engine.SaleItem, error) {
	items := make([]engine.SaleItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("line %q: quantity %d: %w", line.Name, line.Quantity, engine.ErrInvalidAmount)
		}
		item := engine.SaleItem{
			ProductID:     line.ProductID,
			Name:          line.Name,
			Quantity:      line.Quantity,
			OriginalPrice: line.Price,
			Discount:      line.Discount,
			DiscountType:  line.DiscountType,
			Manual:        line.Manual,
		}
		if !line.Manual && line.ProductID != "" {
			p, err := tx.Product(ctx, line.ProductID)
			if err == nil {
				item.PurchasePrice = p.PurchasePrice
				if item.Name == "" {
					item.Name = p.Name
				}
				if item.OriginalPrice.IsZero() {
					item.OriginalPrice = p.SalePrice
				}
			} else if !engine.IsNotFound(err) {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// =============================================================================
// REVERSAL
// =============================================================================

// ReverseSale returns a subset of a sale's items, identified by their
// line indexes.
//
// Returning every item of a sale with no charges is a full reversal:
// stock is restored, the sale is deleted, and the loyalty entries tied to
// it are removed. Anything else is a partial reversal: returned lines are
// restocked and the sale is recomputed over its remaining items with its
// original discount, charges, carried balance, and loyalty discount
// unchanged; the loyalty ledger is not touched.
func (l *Ledger) ReverseSale(ctx context.Context, saleID string, returnLines []int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := engine.DateOf(l.Now())

	return l.store.WithTx(ctx, func(tx engine.Tx) error {
		s, err := tx.Sale(ctx, saleID)
		if err != nil {
			return err
		}

		returned := make(map[int]bool, len(returnLines))
		for _, idx := range returnLines {
			if idx < 0 || idx >= len(s.Items) {
				return fmt.Errorf("return line %d out of range: %w", idx, engine.ErrInvalidAmount)
			}
			returned[idx] = true
		}
		if len(returned) == 0 {
			return fmt.Errorf("no items to return: %w", engine.ErrInvalidAmount)
		}

		if err := l.restock(ctx, tx, s, returned); err != nil {
			return err
		}

		full := len(returned) == len(s.Items) && s.TuningCharges.IsZero() && s.LaborCharges.IsZero()
		if full {
			return l.reverseFull(ctx, tx, s, today)
		}
		return l.reversePartial(ctx, tx, s, returned)
	})
}

// restock returns stock for every non-synthetic returned line. A deleted
// product is a dangling weak reference; its line cannot be restocked.
func (l *Ledger) restock(ctx context.Context, tx engine.Tx, s engine.Sale, returned map[int]bool) error {
	for idx := range returned {
		item := s.Items[idx]
		if item.Manual || item.ProductID == "" {
			continue
		}
		p, err := tx.Product(ctx, item.ProductID)
		if err != nil {
			if engine.IsNotFound(err) {
				continue
			}
			return err
		}
		p.Quantity += item.Quantity
		if err := tx.PutProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) reverseFull(ctx context.Context, tx engine.Tx, s engine.Sale, today engine.Date) error {
	customer, err := tx.Customer(ctx, s.CustomerID)
	if err != nil {
		return err
	}

	if err := l.loyalty.RemoveSale(ctx, tx, &customer, s); err != nil {
		return err
	}
	if err := tx.DeleteSale(ctx, s.ID); err != nil {
		return err
	}

	kept := customer.SaleIDs[:0]
	for _, id := range customer.SaleIDs {
		if id != s.ID {
			kept = append(kept, id)
		}
	}
	customer.SaleIDs = kept

	if err := resumBalance(ctx, tx, &customer); err != nil {
		return err
	}
	if _, err := reevaluateTier(ctx, tx, l.config.Tiers(), &customer, today); err != nil {
		return err
	}
	return tx.PutCustomer(ctx, customer)
}

func (l *Ledger) reversePartial(ctx context.Context, tx engine.Tx, s engine.Sale, returned map[int]bool) error {
	remaining := make([]engine.SaleItem, 0, len(s.Items)-len(returned))
	for i, item := range s.Items {
		if !returned[i] {
			remaining = append(remaining, item)
		}
	}

	// Same pipeline as creation, reusing the sale's original overall
	// discount, charges, carried balance, and loyalty discount.
	t := computeTotals(remaining, s.OverallDiscount, s.OverallDiscType, s.TuningCharges, s.LaborCharges)

	s.Items = t.Items
	s.Subtotal = t.Subtotal
	s.TotalItemDiscounts = t.ItemDiscounts
	s.Total = engine.RoundMoney(t.CartTotal.Add(s.PreviousBalance).Sub(s.LoyaltyDiscount))
	s.BalanceDue = engine.RoundMoney(s.Total.Sub(s.AmountPaid))
	s.PaymentStatus = paymentStatusFor(s.BalanceDue, s.AmountPaid)

	if err := tx.PutSale(ctx, s); err != nil {
		return err
	}

	customer, err := tx.Customer(ctx, s.CustomerID)
	if err != nil {
		return err
	}
	if err := resumBalance(ctx, tx, &customer); err != nil {
		return err
	}
	return tx.PutCustomer(ctx, customer)
}

// =============================================================================
// POINTS AND PAYMENTS
// =============================================================================

// AdjustCustomerPoints applies a signed manual point correction.
// A reason is mandatory; a resulting negative balance is rejected.
func (l *Ledger) AdjustCustomerPoints(ctx context.Context, customerID string, delta int64, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := engine.DateOf(l.Now())
	return l.store.WithTx(ctx, func(tx engine.Tx) error {
		customer, err := tx.Customer(ctx, customerID)
		if err != nil {
			return err
		}
		if err := l.loyalty.Adjust(ctx, tx, &customer, delta, reason, today); err != nil {
			return err
		}
		return tx.PutCustomer(ctx, customer)
	})
}

// RecordCustomerPayment credits a payment against the customer's
// outstanding balance. Paying more than is owed is rejected.
func (l *Ledger) RecordCustomerPayment(ctx context.Context, customerID string, amount decimal.Decimal, notes string) (engine.Payment, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return engine.Payment{}, engine.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Now()
	var payment engine.Payment
	err := l.store.WithTx(ctx, func(tx engine.Tx) error {
		customer, err := tx.Customer(ctx, customerID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(customer.Balance) {
			return fmt.Errorf("payment %s against balance %s: %w",
				amount.StringFixed(2), customer.Balance.StringFixed(2), engine.ErrPaymentExceedsBalance)
		}

		customer.Balance = customer.Balance.Sub(amount)
		if err := tx.PutCustomer(ctx, customer); err != nil {
			return err
		}

		payment = engine.Payment{
			ID:         uuid.NewString(),
			CustomerID: customer.ID,
			Amount:     amount,
			Date:       now,
			Notes:      notes,
		}
		return tx.AppendPayment(ctx, payment)
	})
	if err != nil {
		return engine.Payment{}, err
	}
	return payment, nil
}

// =============================================================================
// CONFIGURATION REPLACEMENT
// =============================================================================

// UpdateCustomerTiers replaces the tier definitions and re-evaluates
// every customer against the new set.
func (l *Ledger) UpdateCustomerTiers(ctx context.Context, tiers []engine.Tier) error {
	set := engine.NewTierSet(tiers)
	if err := l.replaceConfig(ctx, configTiers, set.Tiers(), set); err != nil {
		return err
	}
	l.config.setTiers(set)
	return nil
}

// UpdateEarningRules replaces the earning brackets.
func (l *Ledger) UpdateEarningRules(ctx context.Context, rules []engine.EarningRule) error {
	set := engine.NewEarningRules(rules)
	if err := l.replaceConfig(ctx, configEarning, set.Rules(), l.config.Tiers()); err != nil {
		return err
	}
	l.config.setEarning(set)
	return nil
}

// UpdateRedemptionRule replaces the points-to-discount conversion rule.
func (l *Ledger) UpdateRedemptionRule(ctx context.Context, rule engine.RedemptionRule) error {
	if err := l.replaceConfig(ctx, configRedemption, rule, l.config.Tiers()); err != nil {
		return err
	}
	l.config.setRedemption(rule)
	return nil
}

// UpdatePromotions replaces the promotion list.
func (l *Ledger) UpdatePromotions(ctx context.Context, promos []engine.Promotion) error {
	set := engine.NewPromotions(promos)
	if err := l.replaceConfig(ctx, configPromotions, set.List(), l.config.Tiers()); err != nil {
		return err
	}
	l.config.setPromotions(set)
	return nil
}

// UpdateLoyaltyExpirySettings replaces the expiry settings.
func (l *Ledger) UpdateLoyaltyExpirySettings(ctx context.Context, settings engine.ExpirySettings) error {
	if err := l.replaceConfig(ctx, configExpiry, settings, l.config.Tiers()); err != nil {
		return err
	}
	l.config.setExpiry(settings)
	return nil
}

// replaceConfig persists a configuration blob and runs the tier
// re-evaluation pass inside the same transaction, evaluating against the
// given tier set (the new one when tiers themselves change).
func (l *Ledger) replaceConfig(ctx context.Context, name string, value any, tiers *engine.TierSet) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	today := engine.DateOf(l.Now())
	return l.store.WithTx(ctx, func(tx engine.Tx) error {
		if err := tx.SetConfig(ctx, name, raw); err != nil {
			return err
		}
		return reevaluateAll(ctx, tx, tiers, today)
	})
}

// ReevaluateAllTiers runs the tier evaluator for every customer.
// The daily sweep calls this after point expiry.
func (l *Ledger) ReevaluateAllTiers(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := engine.DateOf(l.Now())
	return l.store.WithTx(ctx, func(tx engine.Tx) error {
		return reevaluateAll(ctx, tx, l.config.Tiers(), today)
	})
}

func reevaluateAll(ctx context.Context, tx engine.Tx, tiers *engine.TierSet, today engine.Date) error {
	customers, err := tx.Customers(ctx)
	if err != nil {
		return err
	}
	for i := range customers {
		c := customers[i]
		changed, err := reevaluateTier(ctx, tx, tiers, &c, today)
		if err != nil {
			return err
		}
		if changed {
			if err := tx.PutCustomer(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}
