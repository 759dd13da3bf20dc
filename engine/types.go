/*
Package engine provides the core sale settlement and loyalty accounting engine.

PURPOSE:
  This package contains the record types and pure calculators that turn a
  cart of items plus charges and discounts into a finalized sale, and that
  keep three interdependent ledgers consistent: inventory stock, customer
  accounts-receivable balance, and customer loyalty-point balance.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product:      Inventory record, stock mutated by sale create/reverse
  - SaleItem:     Immutable line snapshot embedded in a Sale
  - Sale:         The finalized settlement record
  - Customer:     Identity + running balance and loyalty-point totals
  - LoyaltyEntry: Append-only loyalty ledger row
  - Payment:      Append-only accounts-receivable credit

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all money to avoid float drift
  2. Snapshots: SaleItem captures prices at sale time; later product edits
     or deletions do not rewrite history
  3. Weak references: SaleItem.ProductID may point at a deleted product
  4. Auditability: every loyalty change carries points-before/points-after

SEE ALSO:
  - discount.go, earning.go, promotion.go, tier.go, redemption.go: calculators
  - store.go: persistence interfaces
  - ../sale: settlement orchestration
  - ../loyalty: ledger writes and the expiry sweep
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY HELPERS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds a monetary amount to 2 decimal places,
// half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// RoundPoints rounds a fractional point amount to a whole number of points,
// half away from zero.
func RoundPoints(d decimal.Decimal) int64 { return d.Round(0).IntPart() }

// =============================================================================
// PRODUCT - Inventory record
// =============================================================================

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	SubCategory   string          `json:"subCategory"`
	Quantity      int             `json:"quantity"` // stock on hand, never negative
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	Barcode       string          `json:"barcode,omitempty"`
	Manufacturer  string          `json:"manufacturer"`
	Location      string          `json:"location"`
}

// =============================================================================
// SALE - Finalized settlement record
// =============================================================================

// SaleItem is a line of a sale, immutable once written. Prices are
// snapshotted at sale time. Manual (synthetic) lines are not backed by an
// inventory product and never touch stock.
type SaleItem struct {
	ProductID     string          `json:"productId,omitempty"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Discount      decimal.Decimal `json:"discount"`
	DiscountType  DiscountType    `json:"discountType"`
	NetPrice      decimal.Decimal `json:"netPrice"` // per-unit price after item discount
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	Manual        bool            `json:"manual"`
}

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPartial PaymentStatus = "partial"
	StatusUnpaid  PaymentStatus = "unpaid"
)

type Sale struct {
	ID         string     `json:"id"` // time-derived, collision-suffixed
	CustomerID string     `json:"customerId"`
	Items      []SaleItem `json:"items"`

	Subtotal           decimal.Decimal `json:"subtotal"`
	TotalItemDiscounts decimal.Decimal `json:"totalItemDiscounts"`
	OverallDiscount    decimal.Decimal `json:"overallDiscount"`
	OverallDiscType    DiscountType    `json:"overallDiscountType"`
	TuningCharges      decimal.Decimal `json:"tuningCharges"`
	LaborCharges       decimal.Decimal `json:"laborCharges"`
	PreviousBalance    decimal.Decimal `json:"previousBalance"` // balance brought forward
	LoyaltyDiscount    decimal.Decimal `json:"loyaltyDiscount"`
	Total              decimal.Decimal `json:"total"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	BalanceDue         decimal.Decimal `json:"balanceDue"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus"`

	PointsEarned       int64  `json:"pointsEarned"`
	RedeemedPoints     int64  `json:"redeemedPoints"`
	PromotionApplied   string `json:"promotionApplied,omitempty"`
	TierApplied        string `json:"tierApplied,omitempty"`
	FinalLoyaltyPoints int64  `json:"finalLoyaltyPoints"`

	CreatedAt time.Time `json:"createdAt"`
}

// =============================================================================
// CUSTOMER
// =============================================================================

// Customer identity is the normalized form of a caller-supplied code
// (for a garage, typically a vehicle number). Balance is the amount the
// customer owes; both Balance and LoyaltyPoints are never negative.
type Customer struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Contact               string          `json:"contact,omitempty"`
	SaleIDs               []string        `json:"saleIds"` // insertion order
	FirstSeen             time.Time       `json:"firstSeen"`
	LastSeen              time.Time       `json:"lastSeen"`
	LoyaltyPoints         int64           `json:"loyaltyPoints"`
	TierID                string          `json:"tierId,omitempty"`
	Balance               decimal.Decimal `json:"balance"`
	ManualVisitAdjustment int             `json:"manualVisitAdjustment"`
	ServiceFrequency      string          `json:"serviceFrequency,omitempty"`
}

// =============================================================================
// LOYALTY LEDGER ENTRY
// =============================================================================

type EntryType string

const (
	EntryEarned         EntryType = "earned"
	EntryRedeemed       EntryType = "redeemed"
	EntryManualAdd      EntryType = "manual_add"
	EntryManualSubtract EntryType = "manual_subtract"
)

// Credits reports whether the entry type adds points to the balance.
func (t EntryType) Credits() bool {
	return t == EntryEarned || t == EntryManualAdd
}

// LoyaltyEntry is one row of the append-only loyalty ledger.
// Points is always stored as a non-negative magnitude; the entry type
// carries the sign. Invariant: PointsAfter == PointsBefore +/- Points.
type LoyaltyEntry struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	Type         EntryType `json:"type"`
	Points       int64     `json:"points"`
	Date         Date      `json:"date"`
	RelatedSale  string    `json:"relatedSale,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	PointsBefore int64     `json:"pointsBefore"`
	PointsAfter  int64     `json:"pointsAfter"`
}

// =============================================================================
// PAYMENT - Accounts-receivable credit
// =============================================================================

type Payment struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Notes      string          `json:"notes,omitempty"`
}

// =============================================================================
// LOYALTY EXPIRY SETTINGS
// =============================================================================

type ExpirySettings struct {
	Enabled          bool   `json:"enabled"`
	InactivityPeriod Window `json:"inactivityPeriod"`
	PointsLifespan   Window `json:"pointsLifespan"`
	ReminderPeriod   Window `json:"reminderPeriod"`
}
