/*
errors.go - Centralized error types for the settlement engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify failures with the helpers at the bottom rather than
  matching individual sentinels.

ERROR CATEGORIES:
  1. Validation  - bad input or unsatisfiable request; nothing was mutated
  2. Not found   - a sale, customer, or product reference did not resolve
  3. Invariant   - the operation would drive a point balance negative

POLICY:
  Every validation check runs before any mutation. On failure the
  operation aborts with no partial state change and returns a typed
  error; the engine never panics on bad input.

USAGE:
  Structured errors wrap the sentinels:

    if errors.Is(err, engine.ErrInsufficientStock) {
        var stockErr *engine.InsufficientStockError
        errors.As(err, &stockErr)
        ...
    }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyCart is returned when a sale has no items and no charges.
	ErrEmptyCart = errors.New("empty cart with no charges")

	// ErrInsufficientStock is returned when a cart line exceeds stock on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientPoints is returned when a redemption or deduction
	// exceeds the customer's available loyalty points.
	ErrInsufficientPoints = errors.New("insufficient loyalty points")

	// ErrPaymentExceedsBalance is returned when a payment is larger than
	// the customer's outstanding balance.
	ErrPaymentExceedsBalance = errors.New("payment exceeds outstanding balance")

	// ErrReasonRequired is returned when a manual point adjustment carries
	// no reason.
	ErrReasonRequired = errors.New("adjustment reason is required")

	// ErrInvalidAmount is returned for zero or negative payment amounts
	// and non-positive line quantities.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrCustomerCodeRequired is returned when a sale carries no customer
	// code to normalize into an identifier.
	ErrCustomerCodeRequired = errors.New("customer code is required")

	// ErrSaleNotFound is returned when a sale id does not resolve.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrCustomerNotFound is returned when a customer id does not resolve.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrProductNotFound is returned when a product reference does not resolve.
	ErrProductNotFound = errors.New("product not found")

	// ErrNegativePoints is returned when an operation would drive a
	// loyalty-point balance below zero. Customer balances have no such
	// sentinel: resums floor at zero and overpayments are rejected up
	// front with ErrPaymentExceedsBalance.
	ErrNegativePoints = errors.New("loyalty points would go negative")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError identifies the failing cart line.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InsufficientPointsError details a redemption shortage.
type InsufficientPointsError struct {
	Requested int64
	Available int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient loyalty points: requested %d, available %d",
		e.Requested, e.Available)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }

// NotFoundError identifies a missing record by kind and id.
type NotFoundError struct {
	Kind string // "sale", "customer", "product"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "sale":
		return ErrSaleNotFound
	case "customer":
		return ErrCustomerNotFound
	case "product":
		return ErrProductNotFound
	default:
		return nil
	}
}

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsValidation reports whether the error is a rejected-input failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrPaymentExceedsBalance) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrCustomerCodeRequired)
}

// IsNotFound reports whether the error indicates an unresolvable reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound)
}

// IsInvariantViolation reports whether the error indicates an operation
// that would break a never-negative invariant.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrNegativePoints)
}
