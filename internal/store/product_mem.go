package store

import (
	"context"
	"sort"
	"sync"

	"storefront/internal/model"
)

type MemProductStore struct {
	mu       sync.RWMutex
	products map[string]model.Product
}

func NewMemProductStore() *MemProductStore {
	return &MemProductStore{products: make(map[string]model.Product)}
}

func (s *MemProductStore) Create(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists {
		return ErrDuplicateID
	}
	s.products[p.ID] = *p
	return nil
}

func (s *MemProductStore) Get(_ context.Context, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemProductStore) Update(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.products[p.ID]
	if !exists {
		return ErrNotFound
	}
	cur.Name = p.Name
	cur.Price = p.Price
	s.products[p.ID] = cur
	return nil
}

func (s *MemProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemProductStore) List(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
