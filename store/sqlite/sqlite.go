/*
Package sqlite provides the SQLite-backed Store implementation.

PURPOSE:
  Durable persistence for the settlement engine. The same patterns apply
  to PostgreSQL with minor dialect changes.

STORAGE LAYOUT:
  Two shapes of table:
  - Ledger tables (loyalty_entries, payments) use explicit columns: they
    are append-only, queried by customer, and their rows are the audit
    trail.
  - Document tables (products, sales, customers) store the record as a
    JSON blob beside its key columns. These records are overwritten whole
    by the engine, never patched field by field, so a blob keeps the
    schema stable while the record types evolve.

  Monetary amounts ride inside the JSON blobs as decimal strings, and as
  TEXT columns in the ledger tables; nothing monetary is ever a float.

TRANSACTIONS:
  WithTx wraps the callback in one SQL transaction; every staged write
  commits together or rolls back together.

WAL MODE:
  The database is opened with WAL for better read concurrency and crash
  recovery.

SEE ALSO:
  - engine/store.go: the interfaces implemented here
  - store/memory: the in-memory implementation used in tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/pos-engine/engine"
)

// Store implements engine.Store over SQLite.
type Store struct {
	db *sql.DB
	q  queries
}

// New opens (and migrates) the database at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db, q: queries{db: db}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		record_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		record_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id);
	CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		record_json TEXT NOT NULL
	);

	-- Loyalty ledger: append-only outside of full sale reversal.
	CREATE TABLE IF NOT EXISTS loyalty_entries (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		points INTEGER NOT NULL CHECK (points >= 0),
		entry_date TEXT NOT NULL,
		related_sale TEXT,
		reason TEXT,
		points_before INTEGER NOT NULL,
		points_after INTEGER NOT NULL CHECK (points_after >= 0)
	);
	CREATE INDEX IF NOT EXISTS idx_loyalty_customer_date
		ON loyalty_entries(customer_id, entry_date);
	CREATE INDEX IF NOT EXISTS idx_loyalty_related_sale
		ON loyalty_entries(related_sale) WHERE related_sale IS NOT NULL;

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments(customer_id, paid_at);

	CREATE TABLE IF NOT EXISTS config (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STORE SURFACE
// =============================================================================

func (s *Store) Product(ctx context.Context, id string) (engine.Product, error) {
	return s.q.Product(ctx, id)
}
func (s *Store) Products(ctx context.Context) ([]engine.Product, error) { return s.q.Products(ctx) }
func (s *Store) Sale(ctx context.Context, id string) (engine.Sale, error) {
	return s.q.Sale(ctx, id)
}
func (s *Store) Sales(ctx context.Context) ([]engine.Sale, error) { return s.q.Sales(ctx) }
func (s *Store) SaleExists(ctx context.Context, id string) (bool, error) {
	return s.q.SaleExists(ctx, id)
}
func (s *Store) Customer(ctx context.Context, id string) (engine.Customer, error) {
	return s.q.Customer(ctx, id)
}
func (s *Store) Customers(ctx context.Context) ([]engine.Customer, error) { return s.q.Customers(ctx) }
func (s *Store) LoyaltyEntries(ctx context.Context, customerID string) ([]engine.LoyaltyEntry, error) {
	return s.q.LoyaltyEntries(ctx, customerID)
}
func (s *Store) PaymentsByCustomer(ctx context.Context, customerID string) ([]engine.Payment, error) {
	return s.q.PaymentsByCustomer(ctx, customerID)
}
func (s *Store) Config(ctx context.Context, name string) ([]byte, error) {
	return s.q.Config(ctx, name)
}

// WithTx runs fn inside one SQL transaction.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&queries{db: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// =============================================================================
// QUERIES - Shared between *sql.DB and *sql.Tx
// =============================================================================

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

var _ engine.Tx = (*queries)(nil)

// --- documents ---

func (q *queries) Product(ctx context.Context, id string) (engine.Product, error) {
	var p engine.Product
	err := q.document(ctx, "products", id, &p)
	if err == sql.ErrNoRows {
		return engine.Product{}, &engine.NotFoundError{Kind: "product", ID: id}
	}
	return p, err
}

func (q *queries) Products(ctx context.Context) ([]engine.Product, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT record_json FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Product
	for rows.Next() {
		var p engine.Product
		if err := scanDocument(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *queries) PutProduct(ctx context.Context, p engine.Product) error {
	return q.putDocument(ctx, `INSERT OR REPLACE INTO products (id, record_json) VALUES (?, ?)`, p.ID, p)
}

func (q *queries) DeleteProduct(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}

func (q *queries) Sale(ctx context.Context, id string) (engine.Sale, error) {
	var s engine.Sale
	err := q.document(ctx, "sales", id, &s)
	if err == sql.ErrNoRows {
		return engine.Sale{}, &engine.NotFoundError{Kind: "sale", ID: id}
	}
	return s, err
}

func (q *queries) Sales(ctx context.Context) ([]engine.Sale, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT record_json FROM sales ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Sale
	for rows.Next() {
		var s engine.Sale
		if err := scanDocument(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *queries) SaleExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, `SELECT 1 FROM sales WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (q *queries) PutSale(ctx context.Context, s engine.Sale) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sales (id, customer_id, created_at, record_json) VALUES (?, ?, ?, ?)`,
		s.ID, s.CustomerID, s.CreatedAt.UTC().Format(time.RFC3339Nano), string(raw))
	return err
}

func (q *queries) DeleteSale(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
	return err
}

func (q *queries) Customer(ctx context.Context, id string) (engine.Customer, error) {
	var c engine.Customer
	err := q.document(ctx, "customers", id, &c)
	if err == sql.ErrNoRows {
		return engine.Customer{}, &engine.NotFoundError{Kind: "customer", ID: id}
	}
	return c, err
}

func (q *queries) Customers(ctx context.Context) ([]engine.Customer, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT record_json FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Customer
	for rows.Next() {
		var c engine.Customer
		if err := scanDocument(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *queries) PutCustomer(ctx context.Context, c engine.Customer) error {
	return q.putDocument(ctx, `INSERT OR REPLACE INTO customers (id, record_json) VALUES (?, ?)`, c.ID, c)
}

// --- loyalty ledger ---

func (q *queries) LoyaltyEntries(ctx context.Context, customerID string) ([]engine.LoyaltyEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, customer_id, entry_type, points, entry_date,
		       COALESCE(related_sale, ''), COALESCE(reason, ''),
		       points_before, points_after
		FROM loyalty_entries
		WHERE customer_id = ?
		ORDER BY entry_date, rowid`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.LoyaltyEntry
	for rows.Next() {
		var e engine.LoyaltyEntry
		var entryType, entryDate string
		if err := rows.Scan(&e.ID, &e.CustomerID, &entryType, &e.Points, &entryDate,
			&e.RelatedSale, &e.Reason, &e.PointsBefore, &e.PointsAfter); err != nil {
			return nil, err
		}
		e.Type = engine.EntryType(entryType)
		if e.Date, err = engine.ParseDate(entryDate); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *queries) AppendLoyalty(ctx context.Context, e engine.LoyaltyEntry) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO loyalty_entries
			(id, customer_id, entry_type, points, entry_date, related_sale, reason, points_before, points_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CustomerID, string(e.Type), e.Points, e.Date.String(),
		nullable(e.RelatedSale), nullable(e.Reason), e.PointsBefore, e.PointsAfter)
	return err
}

func (q *queries) DeleteLoyaltyBySale(ctx context.Context, saleID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM loyalty_entries WHERE related_sale = ?`, saleID)
	return err
}

// --- payments ---

func (q *queries) PaymentsByCustomer(ctx context.Context, customerID string) ([]engine.Payment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, customer_id, amount, paid_at, COALESCE(notes, '')
		FROM payments
		WHERE customer_id = ?
		ORDER BY paid_at, rowid`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Payment
	for rows.Next() {
		var p engine.Payment
		var amount, paidAt string
		if err := rows.Scan(&p.ID, &p.CustomerID, &amount, &paidAt, &p.Notes); err != nil {
			return nil, err
		}
		if err := p.Amount.UnmarshalText([]byte(amount)); err != nil {
			return nil, err
		}
		if p.Date, err = time.Parse(time.RFC3339Nano, paidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *queries) AppendPayment(ctx context.Context, p engine.Payment) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO payments (id, customer_id, amount, paid_at, notes)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.CustomerID, p.Amount.String(), p.Date.UTC().Format(time.RFC3339Nano), nullable(p.Notes))
	return err
}

// --- config ---

func (q *queries) Config(ctx context.Context, name string) ([]byte, error) {
	var value string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM config WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (q *queries) SetConfig(ctx context.Context, name string, raw []byte) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO config (name, value) VALUES (?, ?)`, name, string(raw))
	return err
}

// --- helpers ---

func (q *queries) document(ctx context.Context, table, id string, out any) error {
	var raw string
	err := q.db.QueryRowContext(ctx,
		`SELECT record_json FROM `+table+` WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (q *queries) putDocument(ctx context.Context, stmt, id string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, stmt, id, string(raw))
	return err
}

func scanDocument(rows *sql.Rows, out any) error {
	var raw string
	if err := rows.Scan(&raw); err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
