package cart

import (
	"context"
	"errors"
)

var ErrCartNotFound = errors.New("cart not found")

// Store defines the interface for cart storage operations
type Store interface {
	// AddItem adds a line item, incrementing the quantity when a line
	// for the same (card, product) already exists. Implementations must
	// serialize concurrent adds for the same pair.
	AddItem(ctx context.Context, item LineItem) error

	// Items returns all line items for the card. A card with no cart
	// yields an empty slice, not an error.
	Items(ctx context.Context, cardID string) ([]LineItem, error)

	// Clear removes every line item for the card. Clearing an absent
	// cart is a no-op success.
	Clear(ctx context.Context, cardID string) error
}
