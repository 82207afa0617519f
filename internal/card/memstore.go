package card

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu    sync.RWMutex
	cards map[string]*Card // cardID -> card
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cards: make(map[string]*Card),
	}
}

func (s *MemoryStore) Insert(_ context.Context, c *Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	s.cards[c.CardID] = &stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, cardID string) (*Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.cards[cardID]
	if !exists {
		return nil, ErrCardNotFound
	}
	out := *c
	return &out, nil
}
