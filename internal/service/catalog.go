package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/store"
)

// Catalog is the price-lookup collaborator. Prices are always read at the
// moment of computation, never cached from an earlier call.
type Catalog struct {
	products store.ProductStore
}

func NewCatalog(products store.ProductStore) *Catalog {
	return &Catalog{products: products}
}

// Price returns the current price and whether the product id is known.
func (c *Catalog) Price(ctx context.Context, id string) (int64, bool, error) {
	p, err := c.products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get product %s: %w", id, err)
	}
	return p.Price, true, nil
}

// CartTotal sums price*quantity over the cart. Unknown product ids
// contribute zero, matching the storefront's historical behavior for
// discontinued products (reviewed and kept as-is).
func (c *Catalog) CartTotal(ctx context.Context, cart map[string]int) (int64, error) {
	var total int64
	for id, qty := range cart {
		price, known, err := c.Price(ctx, id)
		if err != nil {
			return 0, err
		}
		if !known {
			continue
		}
		total += price * int64(qty)
	}
	return total, nil
}

func (c *Catalog) List(ctx context.Context) ([]model.Product, error) {
	return c.products.List(ctx)
}
