package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const cartCeilingKey = "cart_ceiling"

// PGSettingsStore reads and writes the settings table. A missing row falls
// back to the configured default so a fresh database works out of the box.
type PGSettingsStore struct {
	db                 *sql.DB
	defaultCartCeiling int64
}

func NewPGSettingsStore(db *sql.DB, defaultCartCeiling int64) *PGSettingsStore {
	return &PGSettingsStore{db: db, defaultCartCeiling: defaultCartCeiling}
}

func (s *PGSettingsStore) CartCeiling(ctx context.Context) (int64, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, cartCeilingKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.defaultCartCeiling, nil
		}
		return 0, fmt.Errorf("get setting: %w", err)
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", cartCeilingKey, err)
	}
	return v, nil
}

func (s *PGSettingsStore) SetCartCeiling(ctx context.Context, v int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		cartCeilingKey, strconv.FormatInt(v, 10),
	)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
