package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"
)

type PGProductStore struct {
	db *sql.DB
}

func NewPGProductStore(db *sql.DB) *PGProductStore {
	return &PGProductStore{db: db}
}

func (s *PGProductStore) Create(ctx context.Context, p *model.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, price, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Price, p.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PGProductStore) Get(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, price, created_at FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *PGProductStore) Update(ctx context.Context, p *model.Product) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = $2, price = $3 WHERE id = $1`,
		p.ID, p.Name, p.Price,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGProductStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGProductStore) List(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, price, created_at FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return products, nil
}
