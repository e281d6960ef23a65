package transfer

import (
	"time"

	"github.com/shopbench/shopbench/internal/types"
)

// Transfer moves Quantity units of one item between two locations of a tenant.
// Stock leaves the source when the transfer is created and reaches the
// destination only on completion.
type Transfer struct {
	ID              string                        `db:"id" json:"id"`
	FromLocationID  string                        `db:"from_location_id" json:"from_location_id"`
	ToLocationID    string                        `db:"to_location_id" json:"to_location_id"`
	InventoryItemID string                        `db:"inventory_item_id" json:"inventory_item_id"`
	Quantity        int                           `db:"quantity" json:"quantity"`
	TransferStatus  types.InventoryTransferStatus `db:"transfer_status" json:"transfer_status"`
	TransferredBy   *string                       `db:"transferred_by" json:"transferred_by,omitempty"`
	Notes           *string                       `db:"notes" json:"notes,omitempty"`
	CompletedAt     *time.Time                    `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt     *time.Time                    `db:"cancelled_at" json:"cancelled_at,omitempty"`

	types.BaseModel
}

// IsPending reports whether the transfer still accepts a transition
func (t *Transfer) IsPending() bool {
	return t.TransferStatus == types.InventoryTransferStatusPending
}
