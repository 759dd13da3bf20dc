/*
pricing.go - The shared totals pipeline

PURPOSE:
  One numeric pipeline turns a list of sale items plus charges and an
  overall discount into the sale's financial fields:

    per-item discount -> subtotal -> charges -> overall discount

  Sale creation, sale editing, and partial reversal all run this exact
  pipeline; the only difference between the paths is which inputs are
  renegotiated and which are preserved from the original sale.

  Loyalty redemption and balance carry-forward are applied by the caller
  AFTER this pipeline, since they depend on the customer, not the cart.
*/
package sale

import (
	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/engine"
)

// totals is the output of the cart pipeline.
type totals struct {
	Items []engine.SaleItem // with NetPrice filled in

	Subtotal              decimal.Decimal // sum of originalPrice * qty
	ItemDiscounts         decimal.Decimal // sum of per-unit discounts * qty
	AfterItemDiscount     decimal.Decimal // sum of netPrice * qty
	WithCharges           decimal.Decimal // afterItemDiscount + tuning + labor
	OverallDiscountAmount decimal.Decimal
	CartTotal             decimal.Decimal // withCharges - overallDiscountAmount
}

// computeTotals runs the cart pipeline. It returns a copy of the items
// with each line's NetPrice computed; the inputs are not mutated.
func computeTotals(items []engine.SaleItem, overallDiscount decimal.Decimal, overallType engine.DiscountType, tuning, labor decimal.Decimal) totals {
	t := totals{
		Items:             make([]engine.SaleItem, len(items)),
		Subtotal:          decimal.Zero,
		ItemDiscounts:     decimal.Zero,
		AfterItemDiscount: decimal.Zero,
	}

	for i, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		perUnitDiscount := engine.DiscountAmount(item.OriginalPrice, item.Discount, item.DiscountType)
		item.NetPrice = item.OriginalPrice.Sub(perUnitDiscount)

		t.Subtotal = t.Subtotal.Add(item.OriginalPrice.Mul(qty))
		t.ItemDiscounts = t.ItemDiscounts.Add(perUnitDiscount.Mul(qty))
		t.AfterItemDiscount = t.AfterItemDiscount.Add(item.NetPrice.Mul(qty))
		t.Items[i] = item
	}

	t.WithCharges = t.AfterItemDiscount.Add(tuning).Add(labor)
	t.OverallDiscountAmount = engine.DiscountAmount(t.WithCharges, overallDiscount, overallType)
	t.CartTotal = t.WithCharges.Sub(t.OverallDiscountAmount)
	return t
}

// paymentStatusFor derives the payment status from the rounded figures.
// balanceDue <= 0 is Paid even when overpaid.
func paymentStatusFor(balanceDue, amountPaid decimal.Decimal) engine.PaymentStatus {
	switch {
	case balanceDue.LessThanOrEqual(decimal.Zero):
		return engine.StatusPaid
	case amountPaid.GreaterThan(decimal.Zero):
		return engine.StatusPartial
	default:
		return engine.StatusUnpaid
	}
}
