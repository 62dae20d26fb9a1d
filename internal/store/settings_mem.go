package store

import (
	"context"
	"sync"
)

type MemSettingsStore struct {
	mu          sync.RWMutex
	cartCeiling int64
}

func NewMemSettingsStore(defaultCartCeiling int64) *MemSettingsStore {
	return &MemSettingsStore{cartCeiling: defaultCartCeiling}
}

func (s *MemSettingsStore) CartCeiling(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartCeiling, nil
}

func (s *MemSettingsStore) SetCartCeiling(_ context.Context, v int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartCeiling = v
	return nil
}
