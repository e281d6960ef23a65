package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/domain/transfer"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
)

// InventoryTransferService moves stock between locations of a tenant.
// Stock is reserved at the source on create and delivered on complete.
type InventoryTransferService interface {
	FindAll(ctx context.Context, filter *types.InventoryTransferFilter) (*dto.ListInventoryTransfersResponse, error)
	FindByID(ctx context.Context, id string) (*dto.InventoryTransferResponse, error)
	Create(ctx context.Context, req *dto.CreateInventoryTransferRequest) (*dto.InventoryTransferResponse, error)
	Complete(ctx context.Context, id string) (*dto.InventoryTransferResponse, error)
	Cancel(ctx context.Context, id string) (*dto.InventoryTransferResponse, error)
}

type inventoryTransferService struct {
	ServiceParams
}

func NewInventoryTransferService(params ServiceParams) InventoryTransferService {
	return &inventoryTransferService{
		ServiceParams: params,
	}
}

func (s *inventoryTransferService) FindAll(ctx context.Context, filter *types.InventoryTransferFilter) (*dto.ListInventoryTransfersResponse, error) {
	if filter == nil {
		filter = types.NewInventoryTransferFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	transfers, err := s.TransferRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.TransferRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(transfers, func(t *transfer.Transfer, _ int) *dto.InventoryTransferResponse {
		return dto.NewInventoryTransferResponse(t)
	})

	resp := types.NewListResponse(items, total, filter.QueryFilter)
	return &resp, nil
}

func (s *inventoryTransferService) FindByID(ctx context.Context, id string) (*dto.InventoryTransferResponse, error) {
	if id == "" {
		return nil, ierr.NewError("transfer id is required").
			WithHint("Transfer ID is required").
			Mark(ierr.ErrValidation)
	}

	t, err := s.TransferRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInventoryTransferResponse(t), nil
}

func (s *inventoryTransferService) Create(ctx context.Context, req *dto.CreateInventoryTransferRequest) (*dto.InventoryTransferResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := req.ToTransfer(ctx)

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.validateReferences(ctx, req); err != nil {
			return err
		}

		// reserve stock at the source
		if err := s.InventoryRepo.Decrement(ctx, req.InventoryItemID, req.FromLocationID, req.Quantity); err != nil {
			return err
		}

		return s.TransferRepo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("inventory transfer created",
		"tenant_id", t.TenantID,
		"transfer_id", t.ID,
		"from_location_id", t.FromLocationID,
		"to_location_id", t.ToLocationID,
		"inventory_item_id", t.InventoryItemID,
		"quantity", t.Quantity)

	return dto.NewInventoryTransferResponse(t), nil
}

// validateReferences resolves both locations and the item inside the tenant.
// A reference the tenant cannot see is a bad request, not a missing transfer.
func (s *inventoryTransferService) validateReferences(ctx context.Context, req *dto.CreateInventoryTransferRequest) error {
	for _, locationID := range []string{req.FromLocationID, req.ToLocationID} {
		if _, err := s.LocationRepo.Get(ctx, locationID); err != nil {
			if ierr.IsNotFound(err) {
				return ierr.NewErrorf("location %s not found", locationID).
					WithHintf("Location %s not found", locationID).
					WithReportableDetails(map[string]any{
						"location_id": locationID,
					}).
					Mark(ierr.ErrValidation)
			}
			return err
		}
	}

	if _, err := s.InventoryRepo.GetItem(ctx, req.InventoryItemID); err != nil {
		if ierr.IsNotFound(err) {
			return ierr.NewErrorf("inventory item %s not found", req.InventoryItemID).
				WithHintf("Inventory item %s not found", req.InventoryItemID).
				WithReportableDetails(map[string]any{
					"inventory_item_id": req.InventoryItemID,
				}).
				Mark(ierr.ErrValidation)
		}
		return err
	}

	available, err := s.InventoryRepo.GetQuantity(ctx, req.InventoryItemID, req.FromLocationID)
	if err != nil {
		return err
	}
	if available < req.Quantity {
		return ierr.NewError("insufficient stock at source location").
			WithHintf("Insufficient stock. Available: %d, Requested: %d", available, req.Quantity).
			WithReportableDetails(map[string]any{
				"inventory_item_id": req.InventoryItemID,
				"location_id":       req.FromLocationID,
				"available":         available,
				"requested":         req.Quantity,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func (s *inventoryTransferService) Complete(ctx context.Context, id string) (*dto.InventoryTransferResponse, error) {
	return s.transition(ctx, id, types.InventoryTransferStatusCompleted)
}

func (s *inventoryTransferService) Cancel(ctx context.Context, id string) (*dto.InventoryTransferResponse, error) {
	return s.transition(ctx, id, types.InventoryTransferStatusCancelled)
}

// transition closes a pending transfer. Completing delivers the reserved
// stock to the destination, cancelling returns it to the source.
func (s *inventoryTransferService) transition(ctx context.Context, id string, status types.InventoryTransferStatus) (*dto.InventoryTransferResponse, error) {
	var t *transfer.Transfer

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.TransferRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if !t.IsPending() {
			return ierr.NewErrorf("transfer is %s", t.TransferStatus).
				WithHintf("Transfer is already %s", t.TransferStatus).
				WithReportableDetails(map[string]any{
					"transfer_id": id,
					"status":      t.TransferStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		// the guarded update loses to a concurrent transition
		if err := s.TransferRepo.Transition(ctx, id, status, time.Now().UTC()); err != nil {
			return err
		}

		locationID := t.ToLocationID
		if status == types.InventoryTransferStatusCancelled {
			locationID = t.FromLocationID
		}
		if err := s.InventoryRepo.Increment(ctx, t.InventoryItemID, locationID, t.Quantity); err != nil {
			return err
		}

		t, err = s.TransferRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("inventory transfer closed",
		"tenant_id", t.TenantID,
		"transfer_id", t.ID,
		"status", t.TransferStatus,
		"quantity", t.Quantity)

	return dto.NewInventoryTransferResponse(t), nil
}
