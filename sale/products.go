package sale

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/warp/pos-engine/engine"
)

// =============================================================================
// PRODUCT CRUD
// =============================================================================
// Inventory maintenance outside the sale lifecycle. Sales hold weak
// references to products, so deletion never rewrites sale history.

// CreateProduct stores a new product, minting an id when none is given.
func (l *Ledger) CreateProduct(ctx context.Context, p engine.Product) (engine.Product, error) {
	if p.Name == "" {
		return engine.Product{}, fmt.Errorf("product name is required: %w", engine.ErrInvalidAmount)
	}
	if p.Quantity < 0 {
		return engine.Product{}, fmt.Errorf("product quantity %d: %w", p.Quantity, engine.ErrInvalidAmount)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := l.store.WithTx(ctx, func(tx engine.Tx) error {
		return tx.PutProduct(ctx, p)
	})
	if err != nil {
		return engine.Product{}, err
	}
	return p, nil
}

// UpdateProduct overwrites an existing product record.
func (l *Ledger) UpdateProduct(ctx context.Context, p engine.Product) error {
	if p.Quantity < 0 {
		return fmt.Errorf("product quantity %d: %w", p.Quantity, engine.ErrInvalidAmount)
	}
	return l.store.WithTx(ctx, func(tx engine.Tx) error {
		if _, err := tx.Product(ctx, p.ID); err != nil {
			return err
		}
		return tx.PutProduct(ctx, p)
	})
}

// DeleteProduct removes a product from inventory. Sale items referencing
// it keep their snapshots and become dangling weak references.
func (l *Ledger) DeleteProduct(ctx context.Context, id string) error {
	return l.store.WithTx(ctx, func(tx engine.Tx) error {
		if _, err := tx.Product(ctx, id); err != nil {
			return err
		}
		return tx.DeleteProduct(ctx, id)
	})
}
