package engine

import "github.com/shopspring/decimal"

// =============================================================================
// DISCOUNT RESOLVER - Fixed or percentage discount on a base amount
// =============================================================================

type DiscountType string

const (
	DiscountFixed   DiscountType = "fixed"
	DiscountPercent DiscountType = "percentage"
)

// DiscountAmount resolves a discount value against a base amount.
// Fixed discounts pass the value through; percentage discounts take
// base*value/100. The result is not clamped: callers that need a
// non-negative net price enforce that themselves.
func DiscountAmount(base, value decimal.Decimal, typ DiscountType) decimal.Decimal {
	if value.IsZero() {
		return decimal.Zero
	}
	if typ == DiscountPercent {
		return base.Mul(value).Div(hundred)
	}
	return value
}
