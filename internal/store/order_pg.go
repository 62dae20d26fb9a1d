package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"
)

type PGOrderStore struct {
	db *sql.DB
}

func NewPGOrderStore(db *sql.DB) *PGOrderStore {
	return &PGOrderStore{db: db}
}

const orderColumns = `id, cart, amount, email, code, status, payment_method, payment_status,
	admin_comment, created_at, updated_at, paid_at, completed_at, rejected_at`

func (s *PGOrderStore) Create(ctx context.Context, o *model.Order) error {
	cart, err := json.Marshal(o.Cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, cart, o.Amount, o.Email, o.Code, o.Status, o.PaymentMethod, o.PaymentStatus,
		o.AdminComment, o.CreatedAt, o.UpdatedAt, o.PaidAt, o.CompletedAt, o.RejectedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *PGOrderStore) Get(ctx context.Context, id string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *PGOrderStore) Update(ctx context.Context, id string, mutate func(*model.Order) error) (*model.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Row lock serializes concurrent mutations of the same order while
	// leaving other ids untouched.
	row := tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	if err := mutate(o); err != nil {
		return nil, err
	}

	cart, err := json.Marshal(o.Cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}

	// id and created_at are immutable and deliberately absent from the SET list.
	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET cart = $2, amount = $3, email = $4, code = $5, status = $6,
			payment_method = $7, payment_status = $8, admin_comment = $9,
			updated_at = $10, paid_at = $11, completed_at = $12, rejected_at = $13
		WHERE id = $1`,
		o.ID, cart, o.Amount, o.Email, o.Code, o.Status, o.PaymentMethod, o.PaymentStatus,
		o.AdminComment, o.UpdatedAt, o.PaidAt, o.CompletedAt, o.RejectedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return o, nil
}

func (s *PGOrderStore) List(ctx context.Context, f ListFilter) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if f.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o    model.Order
		cart []byte
	)
	err := row.Scan(&o.ID, &cart, &o.Amount, &o.Email, &o.Code, &o.Status,
		&o.PaymentMethod, &o.PaymentStatus, &o.AdminComment,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.CompletedAt, &o.RejectedAt)
	if err != nil {
		return nil, err
	}
	if len(cart) > 0 {
		if err := json.Unmarshal(cart, &o.Cart); err != nil {
			return nil, fmt.Errorf("unmarshal cart: %w", err)
		}
	}
	return &o, nil
}
