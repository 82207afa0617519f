package payment

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-memory storage. Used when no
// database DSN is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions []Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, *tx)
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.transactions)
	if limit > n {
		limit = n
	}
	result := make([]Transaction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, s.transactions[i])
	}
	return result, nil
}
