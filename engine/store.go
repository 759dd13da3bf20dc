/*
store.go - Persistence interfaces for the settlement engine

PURPOSE:
  Defines the boundary between domain logic and the database. The engine
  treats persistence as an abstract durable store of plain records; the
  concrete backend (SQLite, in-memory) is chosen at wiring time.

UNIT OF WORK:
  One logical operation (create/edit/reverse a sale, record a payment,
  run the expiry sweep) touches up to three ledgers: product stock,
  customer balance, and loyalty points. WithTx stages all writes and
  commits them together or not at all; partial application is a
  correctness violation, not a cosmetic one.

APPEND-ONLY:
  Loyalty entries and payments are append-only. The single exception is
  DeleteLoyaltyBySale, used by full sale reversal, which removes the
  entries referencing the reversed sale. See loyalty.Ledger.RemoveSale
  for the trade-off.

IMPLEMENTATIONS:
  - store/memory: in-memory with snapshot rollback, for tests and dev
  - store/sqlite: SQLite with WAL, for production

SEE ALSO:
  - ../store/memory/memory.go
  - ../store/sqlite/sqlite.go
*/
package engine

import "context"

// =============================================================================
// READER - Shared read surface of Store and Tx
// =============================================================================

type Reader interface {
	// Products
	Product(ctx context.Context, id string) (Product, error)
	Products(ctx context.Context) ([]Product, error)

	// Sales
	Sale(ctx context.Context, id string) (Sale, error)
	Sales(ctx context.Context) ([]Sale, error)
	SaleExists(ctx context.Context, id string) (bool, error)

	// Customers
	Customer(ctx context.Context, id string) (Customer, error)
	Customers(ctx context.Context) ([]Customer, error)

	// LoyaltyEntries returns a customer's ledger rows ordered by date,
	// then insertion order.
	LoyaltyEntries(ctx context.Context, customerID string) ([]LoyaltyEntry, error)

	// PaymentsByCustomer returns a customer's payments, oldest first.
	PaymentsByCustomer(ctx context.Context, customerID string) ([]Payment, error)

	// Config returns a named configuration blob, nil when unset.
	Config(ctx context.Context, name string) ([]byte, error)
}

// Not-found reads return a NotFoundError for the missing kind.

// =============================================================================
// TX - Staged writes inside a unit of work
// =============================================================================

type Tx interface {
	Reader

	PutProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error

	PutSale(ctx context.Context, s Sale) error
	DeleteSale(ctx context.Context, id string) error

	PutCustomer(ctx context.Context, c Customer) error

	AppendLoyalty(ctx context.Context, e LoyaltyEntry) error

	// DeleteLoyaltyBySale removes every ledger row referencing a sale.
	// Only full sale reversal may call this.
	DeleteLoyaltyBySale(ctx context.Context, saleID string) error

	AppendPayment(ctx context.Context, p Payment) error

	SetConfig(ctx context.Context, name string, raw []byte) error
}

// =============================================================================
// STORE - Durable backend with unit-of-work commits
// =============================================================================

type Store interface {
	Reader

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back and nothing is applied; otherwise every
	// staged write commits together.
	WithTx(ctx context.Context, fn func(Tx) error) error
}
