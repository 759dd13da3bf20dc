package engine

import "github.com/shopspring/decimal"

// =============================================================================
// REDEMPTION CALCULATOR - Points to discount conversion
// =============================================================================

type RedemptionMethod string

const (
	RedeemFixedValue RedemptionMethod = "fixedValue"
	RedeemPercentage RedemptionMethod = "percentage"
)

// RedemptionRule converts loyalty points into a discount. Points is the
// unit size: every Points points are worth Value, either as a fixed
// currency amount or as a percentage of the bill.
type RedemptionRule struct {
	Method RedemptionMethod `json:"method"`
	Points int64            `json:"points"`
	Value  decimal.Decimal  `json:"value"`
}

// Discount converts a requested redemption into a discount amount.
// Returns ErrInsufficientPoints when the request exceeds the available
// balance. The discount is capped at totalBeforeLoyalty: redeeming can
// zero a bill but never turn it into a credit.
func (r RedemptionRule) Discount(redeemed, available int64, totalBeforeLoyalty decimal.Decimal) (decimal.Decimal, error) {
	if redeemed <= 0 {
		return decimal.Zero, nil
	}
	if redeemed > available {
		return decimal.Zero, &InsufficientPointsError{Requested: redeemed, Available: available}
	}
	if r.Points <= 0 {
		return decimal.Zero, nil
	}

	units := decimal.NewFromInt(redeemed).Div(decimal.NewFromInt(r.Points))
	var discount decimal.Decimal
	switch r.Method {
	case RedeemPercentage:
		discount = totalBeforeLoyalty.Mul(units.Mul(r.Value)).Div(hundred)
	default:
		discount = units.Mul(r.Value)
	}

	if discount.GreaterThan(totalBeforeLoyalty) {
		discount = totalBeforeLoyalty
	}
	return RoundMoney(discount), nil
}
