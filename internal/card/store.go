package card

import (
	"context"
	"errors"
)

var ErrCardNotFound = errors.New("card not found")

// Store defines the interface for card storage operations
type Store interface {
	// Insert stores a newly issued card
	Insert(ctx context.Context, c *Card) error

	// Get returns the card for the given card ID, or ErrCardNotFound
	Get(ctx context.Context, cardID string) (*Card, error)
}
