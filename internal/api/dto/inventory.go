package dto

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/domain/transfer"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopbench/shopbench/internal/validator"
)

type CreateInventoryTransferRequest struct {
	FromLocationID  string  `json:"from_location_id" validate:"required"`
	ToLocationID    string  `json:"to_location_id" validate:"required"`
	InventoryItemID string  `json:"inventory_item_id" validate:"required"`
	Quantity        int     `json:"quantity" validate:"required,gt=0"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (r *CreateInventoryTransferRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.FromLocationID == r.ToLocationID {
		return ierr.NewError("source and destination locations must differ").
			WithHint("Cannot transfer inventory to the same location").
			WithReportableDetails(map[string]any{
				"location_id": r.FromLocationID,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToTransfer builds a pending transfer attributed to the user in ctx
func (r *CreateInventoryTransferRequest) ToTransfer(ctx context.Context) *transfer.Transfer {
	var transferredBy *string
	if userID := types.GetUserID(ctx); userID != "" {
		transferredBy = lo.ToPtr(userID)
	}

	return &transfer.Transfer{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVENTORY_TRANSFER),
		FromLocationID:  r.FromLocationID,
		ToLocationID:    r.ToLocationID,
		InventoryItemID: r.InventoryItemID,
		Quantity:        r.Quantity,
		TransferStatus:  types.InventoryTransferStatusPending,
		TransferredBy:   transferredBy,
		Notes:           r.Notes,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

type InventoryTransferResponse struct {
	*transfer.Transfer
}

func NewInventoryTransferResponse(t *transfer.Transfer) *InventoryTransferResponse {
	return &InventoryTransferResponse{Transfer: t}
}

type ListInventoryTransfersResponse = types.ListResponse[*InventoryTransferResponse]
