package store

import (
	"context"
	"sort"
	"sync"

	"storefront/internal/model"
)

// MemOrderStore keeps orders in process memory. It backs tests and the
// -memory dev mode; production runs on Postgres.
type MemOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*model.Order

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewMemOrderStore() *MemOrderStore {
	return &MemOrderStore{
		orders: make(map[string]*model.Order),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *MemOrderStore) Create(_ context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return ErrDuplicateID
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *MemOrderStore) Get(_ context.Context, id string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.orders[id]
	if !exists {
		return nil, ErrNotFound
	}
	return o.Clone(), nil
}

// idLock returns the mutex serializing updates for one order id. Locks are
// never reclaimed; the id space is small enough not to care.
func (s *MemOrderStore) idLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *MemOrderStore) Update(_ context.Context, id string, mutate func(*model.Order) error) (*model.Order, error) {
	l := s.idLock(id)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	cur, exists := s.orders[id]
	s.mu.RUnlock()
	if !exists {
		return nil, ErrNotFound
	}

	next := cur.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt

	s.mu.Lock()
	s.orders[id] = next
	s.mu.Unlock()
	return next.Clone(), nil
}

func (s *MemOrderStore) List(_ context.Context, f ListFilter) ([]model.Order, error) {
	s.mu.RLock()
	all := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		all = append(all, *o.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(all) {
			return nil, nil
		}
		all = all[f.Offset:]
	}
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}
