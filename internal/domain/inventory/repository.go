package inventory

import "context"

// Repository reads items and mutates the stock ledger of the tenant in ctx.
// Ledger writes are single atomic statements, never read-modify-write.
type Repository interface {
	GetItem(ctx context.Context, id string) (*Item, error)
	// GetQuantity returns 0 when the ledger has no row for the pair
	GetQuantity(ctx context.Context, itemID, locationID string) (int, error)
	// Increment adds qty, creating the ledger row when missing
	Increment(ctx context.Context, itemID, locationID string, qty int) error
	// Decrement subtracts qty only when at least qty is on hand. Otherwise it
	// fails with ErrInvalidOperation and changes nothing.
	Decrement(ctx context.Context, itemID, locationID string, qty int) error
}
