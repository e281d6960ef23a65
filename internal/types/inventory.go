package types

import (
	"github.com/samber/lo"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

// InventoryTransferStatus is the state of a stock movement between two locations.
// pending is the only non-terminal state.
type InventoryTransferStatus string

const (
	InventoryTransferStatusPending   InventoryTransferStatus = "pending"
	InventoryTransferStatusCompleted InventoryTransferStatus = "completed"
	InventoryTransferStatusCancelled InventoryTransferStatus = "cancelled"
)

func (s InventoryTransferStatus) String() string {
	return string(s)
}

func (s InventoryTransferStatus) Validate() error {
	allowed := []InventoryTransferStatus{
		InventoryTransferStatusPending,
		InventoryTransferStatusCompleted,
		InventoryTransferStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid inventory transfer status").
			WithHint("Please provide a valid inventory transfer status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InventoryTransferFilter filters transfers of the current tenant
type InventoryTransferFilter struct {
	*QueryFilter
	TransferStatus  *InventoryTransferStatus `json:"transfer_status,omitempty" form:"transfer_status"`
	LocationID      string                   `json:"location_id,omitempty" form:"location_id"`
	InventoryItemID string                   `json:"inventory_item_id,omitempty" form:"inventory_item_id"`
}

func NewInventoryTransferFilter() *InventoryTransferFilter {
	return &InventoryTransferFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *InventoryTransferFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if f.TransferStatus != nil {
		if err := f.TransferStatus.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}
