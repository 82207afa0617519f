package cart

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]map[int64]*LineItem // cardID -> productID -> line item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string]map[int64]*LineItem),
	}
}

func (s *MemoryStore) AddItem(_ context.Context, item LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, exists := s.carts[item.CardID]
	if !exists {
		lines = make(map[int64]*LineItem)
		s.carts[item.CardID] = lines
	}

	if existing, ok := lines[item.ProductID]; ok {
		existing.Quantity += item.Quantity
		existing.MemberPrice = existing.MemberPrice || item.MemberPrice
		existing.AddedAt = time.Now()
		return nil
	}

	item.AddedAt = time.Now()
	stored := item
	lines[item.ProductID] = &stored
	return nil
}

func (s *MemoryStore) Items(_ context.Context, cardID string) ([]LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[cardID]
	result := make([]LineItem, 0, len(lines))
	for _, item := range lines {
		result = append(result, *item)
	}
	return result, nil
}

func (s *MemoryStore) Clear(_ context.Context, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, cardID)
	return nil
}
