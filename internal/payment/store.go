package payment

import "context"

// Store defines the interface for transaction audit storage
type Store interface {
	// Record persists one transaction row. Rows are never updated.
	Record(ctx context.Context, tx *Transaction) error

	// Recent returns up to limit transactions, newest first.
	Recent(ctx context.Context, limit int) ([]Transaction, error)
}
