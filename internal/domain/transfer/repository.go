package transfer

import (
	"context"
	"time"

	"github.com/shopbench/shopbench/internal/types"
)

type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	Get(ctx context.Context, id string) (*Transfer, error)
	List(ctx context.Context, filter *types.InventoryTransferFilter) ([]*Transfer, error)
	Count(ctx context.Context, filter *types.InventoryTransferFilter) (int, error)
	// Transition moves a pending transfer to status. It fails with
	// ErrInvalidOperation when the row is no longer pending.
	Transition(ctx context.Context, id string, status types.InventoryTransferStatus, at time.Time) error
}
