package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/domain/transfer"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
)

type InMemoryTransferStore struct {
	*InMemoryStore[*transfer.Transfer]
}

func NewInMemoryTransferStore() *InMemoryTransferStore {
	return &InMemoryTransferStore{
		InMemoryStore: NewInMemoryStore[*transfer.Transfer](),
	}
}

func transferNotFound(id string) error {
	return ierr.NewError("inventory transfer not found").
		WithHint("Inventory transfer not found").
		WithReportableDetails(map[string]any{"transfer_id": id}).
		Mark(ierr.ErrNotFound)
}

func transferFilterFn(ctx context.Context, t *transfer.Transfer, filter interface{}) bool {
	if !CheckTenantFilter(ctx, t.TenantID) || !CheckPublished(t.Status) {
		return false
	}

	f, ok := filter.(*types.InventoryTransferFilter)
	if !ok || f == nil {
		return true
	}
	if f.TransferStatus != nil && t.TransferStatus != *f.TransferStatus {
		return false
	}
	if f.LocationID != "" && t.FromLocationID != f.LocationID && t.ToLocationID != f.LocationID {
		return false
	}
	if f.InventoryItemID != "" && t.InventoryItemID != f.InventoryItemID {
		return false
	}
	return true
}

func (s *InMemoryTransferStore) Create(ctx context.Context, t *transfer.Transfer) error {
	copied := *t
	return s.InMemoryStore.Create(ctx, t.ID, &copied)
}

func (s *InMemoryTransferStore) Get(ctx context.Context, id string) (*transfer.Transfer, error) {
	t, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckTenantFilter(ctx, t.TenantID) || !CheckPublished(t.Status) {
		return nil, transferNotFound(id)
	}
	copied := *t
	return &copied, nil
}

func (s *InMemoryTransferStore) List(ctx context.Context, filter *types.InventoryTransferFilter) ([]*transfer.Transfer, error) {
	items, err := s.InMemoryStore.List(ctx, filter, transferFilterFn, func(a, b *transfer.Transfer) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	var queryFilter *types.QueryFilter
	if filter != nil {
		queryFilter = filter.QueryFilter
	}
	return lo.Map(Paginate(items, queryFilter), func(t *transfer.Transfer, _ int) *transfer.Transfer {
		copied := *t
		return &copied
	}), nil
}

func (s *InMemoryTransferStore) Count(ctx context.Context, filter *types.InventoryTransferFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, transferFilterFn)
}

func (s *InMemoryTransferStore) Transition(ctx context.Context, id string, status types.InventoryTransferStatus, at time.Time) error {
	return s.Mutate(ctx, id, func(t *transfer.Transfer) (*transfer.Transfer, error) {
		if !CheckTenantFilter(ctx, t.TenantID) || !CheckPublished(t.Status) {
			return nil, transferNotFound(id)
		}
		if !t.IsPending() {
			return nil, ierr.NewError("inventory transfer is not pending").
				WithHintf("Transfer is already %s", t.TransferStatus).
				WithReportableDetails(map[string]any{
					"transfer_id": id,
					"status":      t.TransferStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		updated := *t
		updated.TransferStatus = status
		switch status {
		case types.InventoryTransferStatusCompleted:
			updated.CompletedAt = lo.ToPtr(at.UTC())
		case types.InventoryTransferStatusCancelled:
			updated.CancelledAt = lo.ToPtr(at.UTC())
		}
		updated.UpdatedAt = at.UTC()
		updated.UpdatedBy = types.GetUserID(ctx)
		return &updated, nil
	})
}
