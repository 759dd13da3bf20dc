// Package memory provides an in-memory Store implementation for tests
// and development. WithTx is simulated with a snapshot taken before the
// function runs and restored on error, which gives the same all-or-nothing
// semantics as a database transaction under a single writer.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/pos-engine/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu sync.RWMutex
	d  data
}

type data struct {
	products  map[string]engine.Product
	sales     map[string]engine.Sale
	customers map[string]engine.Customer
	entries   map[string][]engine.LoyaltyEntry // by customer, insertion order
	payments  map[string][]engine.Payment      // by customer, insertion order
	config    map[string][]byte
}

func New() *Store {
	return &Store{d: newData()}
}

func newData() data {
	return data{
		products:  make(map[string]engine.Product),
		sales:     make(map[string]engine.Sale),
		customers: make(map[string]engine.Customer),
		entries:   make(map[string][]engine.LoyaltyEntry),
		payments:  make(map[string][]engine.Payment),
		config:    make(map[string][]byte),
	}
}

// =============================================================================
// READS (Store surface, shared-locked)
// =============================================================================

func (s *Store) Product(_ context.Context, id string) (engine.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.product(id)
}

func (s *Store) Products(_ context.Context) ([]engine.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.productList(), nil
}

func (s *Store) Sale(_ context.Context, id string) (engine.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.sale(id)
}

func (s *Store) Sales(_ context.Context) ([]engine.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.saleList(), nil
}

func (s *Store) SaleExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.d.sales[id]
	return ok, nil
}

func (s *Store) Customer(_ context.Context, id string) (engine.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.customer(id)
}

func (s *Store) Customers(_ context.Context) ([]engine.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.customerList(), nil
}

func (s *Store) LoyaltyEntries(_ context.Context, customerID string) ([]engine.LoyaltyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.loyaltyEntries(customerID), nil
}

func (s *Store) PaymentsByCustomer(_ context.Context, customerID string) ([]engine.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]engine.Payment(nil), s.d.payments[customerID]...), nil
}

func (s *Store) Config(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.d.config[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

// =============================================================================
// TRANSACTIONS - Snapshot and restore on error
// =============================================================================

func (s *Store) WithTx(_ context.Context, fn func(engine.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	if err := fn(&txView{d: &s.d}); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// txView exposes the Tx surface over the locked data. The parent holds
// the exclusive lock for the duration of the transaction.
type txView struct {
	d *data
}

func (v *txView) Product(_ context.Context, id string) (engine.Product, error) { return v.d.product(id) }
func (v *txView) Products(_ context.Context) ([]engine.Product, error)         { return v.d.productList(), nil }
func (v *txView) Sale(_ context.Context, id string) (engine.Sale, error)       { return v.d.sale(id) }
func (v *txView) Sales(_ context.Context) ([]engine.Sale, error)               { return v.d.saleList(), nil }

func (v *txView) SaleExists(_ context.Context, id string) (bool, error) {
	_, ok := v.d.sales[id]
	return ok, nil
}

func (v *txView) Customer(_ context.Context, id string) (engine.Customer, error) {
	return v.d.customer(id)
}

func (v *txView) Customers(_ context.Context) ([]engine.Customer, error) {
	return v.d.customerList(), nil
}

func (v *txView) LoyaltyEntries(_ context.Context, customerID string) ([]engine.LoyaltyEntry, error) {
	return v.d.loyaltyEntries(customerID), nil
}

func (v *txView) PaymentsByCustomer(_ context.Context, customerID string) ([]engine.Payment, error) {
	return append([]engine.Payment(nil), v.d.payments[customerID]...), nil
}

func (v *txView) Config(_ context.Context, name string) ([]byte, error) {
	raw, ok := v.d.config[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

func (v *txView) PutProduct(_ context.Context, p engine.Product) error {
	v.d.products[p.ID] = p
	return nil
}

func (v *txView) DeleteProduct(_ context.Context, id string) error {
	delete(v.d.products, id)
	return nil
}

func (v *txView) PutSale(_ context.Context, s engine.Sale) error {
	s.Items = append([]engine.SaleItem(nil), s.Items...)
	v.d.sales[s.ID] = s
	return nil
}

func (v *txView) DeleteSale(_ context.Context, id string) error {
	delete(v.d.sales, id)
	return nil
}

func (v *txView) PutCustomer(_ context.Context, c engine.Customer) error {
	c.SaleIDs = append([]string(nil), c.SaleIDs...)
	v.d.customers[c.ID] = c
	return nil
}

func (v *txView) AppendLoyalty(_ context.Context, e engine.LoyaltyEntry) error {
	v.d.entries[e.CustomerID] = append(v.d.entries[e.CustomerID], e)
	return nil
}

func (v *txView) DeleteLoyaltyBySale(_ context.Context, saleID string) error {
	for customerID, list := range v.d.entries {
		kept := list[:0:0]
		for _, e := range list {
			if e.RelatedSale != saleID {
				kept = append(kept, e)
			}
		}
		v.d.entries[customerID] = kept
	}
	return nil
}

func (v *txView) AppendPayment(_ context.Context, p engine.Payment) error {
	v.d.payments[p.CustomerID] = append(v.d.payments[p.CustomerID], p)
	return nil
}

func (v *txView) SetConfig(_ context.Context, name string, raw []byte) error {
	v.d.config[name] = append([]byte(nil), raw...)
	return nil
}

// =============================================================================
// DATA HELPERS
// =============================================================================

func (d *data) product(id string) (engine.Product, error) {
	p, ok := d.products[id]
	if !ok {
		return engine.Product{}, &engine.NotFoundError{Kind: "product", ID: id}
	}
	return p, nil
}

func (d *data) productList() []engine.Product {
	out := make([]engine.Product, 0, len(d.products))
	for _, p := range d.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (d *data) sale(id string) (engine.Sale, error) {
	s, ok := d.sales[id]
	if !ok {
		return engine.Sale{}, &engine.NotFoundError{Kind: "sale", ID: id}
	}
	s.Items = append([]engine.SaleItem(nil), s.Items...)
	return s, nil
}

func (d *data) saleList() []engine.Sale {
	out := make([]engine.Sale, 0, len(d.sales))
	for id := range d.sales {
		s, _ := d.sale(id)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (d *data) customer(id string) (engine.Customer, error) {
	c, ok := d.customers[id]
	if !ok {
		return engine.Customer{}, &engine.NotFoundError{Kind: "customer", ID: id}
	}
	c.SaleIDs = append([]string(nil), c.SaleIDs...)
	return c, nil
}

func (d *data) customerList() []engine.Customer {
	out := make([]engine.Customer, 0, len(d.customers))
	for id := range d.customers {
		c, _ := d.customer(id)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) loyaltyEntries(customerID string) []engine.LoyaltyEntry {
	out := append([]engine.LoyaltyEntry(nil), d.entries[customerID]...)
	// Stable by date, preserving insertion order within a day.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (d *data) clone() data {
	c := newData()
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.sales {
		v.Items = append([]engine.SaleItem(nil), v.Items...)
		c.sales[k] = v
	}
	for k, v := range d.customers {
		v.SaleIDs = append([]string(nil), v.SaleIDs...)
		c.customers[k] = v
	}
	for k, v := range d.entries {
		c.entries[k] = append([]engine.LoyaltyEntry(nil), v...)
	}
	for k, v := range d.payments {
		c.payments[k] = append([]engine.Payment(nil), v...)
	}
	for k, v := range d.config {
		c.config[k] = append([]byte(nil), v...)
	}
	return c
}
