// Package store provides keyed persistence for orders, products and
// settings. Business rules live in the service layer; the store only
// enforces id uniqueness and per-id update serialization.
package store

import (
	"context"
	"errors"

	"storefront/internal/model"
)

var (
	ErrDuplicateID = errors.New("id already exists")
	ErrNotFound    = errors.New("not found")
)

type ListFilter struct {
	Status model.Status // empty matches all
	Limit  int          // 0 means no limit
	Offset int
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error

	Get(ctx context.Context, id string) (*model.Order, error)

	// Update applies mutate to the stored order under an exclusive per-id
	// lock and persists the result. Concurrent updates to the same id are
	// serialized; different ids do not block each other. An error from
	// mutate aborts the update and is returned unchanged. The order's ID
	// and CreatedAt never change regardless of what mutate does.
	Update(ctx context.Context, id string, mutate func(*model.Order) error) (*model.Order, error)

	// List returns orders sorted by creation time, newest first.
	List(ctx context.Context, f ListFilter) ([]model.Order, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	Get(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Product, error)
}

// SettingsStore holds the small mutable settings record, currently just the
// cart ceiling (maximum allowed order amount, 0 disables the check).
type SettingsStore interface {
	CartCeiling(ctx context.Context) (int64, error)
	SetCartCeiling(ctx context.Context, v int64) error
}
