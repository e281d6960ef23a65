package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopbench/shopbench/internal/domain/inventory"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
)

// InMemoryInventoryStore holds items and the per-location stock ledger.
// Ledger updates happen under a single lock so they behave like the
// conditional UPDATE statements of the postgres repository.
type InMemoryInventoryStore struct {
	*InMemoryStore[*inventory.Item]

	ledgerMu sync.Mutex
	ledger   map[string]*inventory.LocationQuantity
}

func NewInMemoryInventoryStore() *InMemoryInventoryStore {
	return &InMemoryInventoryStore{
		InMemoryStore: NewInMemoryStore[*inventory.Item](),
		ledger:        make(map[string]*inventory.LocationQuantity),
	}
}

func ledgerKey(tenantID, itemID, locationID string) string {
	return fmt.Sprintf("%s/%s/%s", tenantID, itemID, locationID)
}

func (s *InMemoryInventoryStore) CreateItem(ctx context.Context, item *inventory.Item) error {
	copied := *item
	return s.InMemoryStore.Create(ctx, item.ID, &copied)
}

func (s *InMemoryInventoryStore) GetItem(ctx context.Context, id string) (*inventory.Item, error) {
	item, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckTenantFilter(ctx, item.TenantID) || !CheckPublished(item.Status) {
		return nil, ierr.NewError("inventory item not found").
			WithHint("Inventory item not found").
			WithReportableDetails(map[string]any{"inventory_item_id": id}).
			Mark(ierr.ErrNotFound)
	}
	copied := *item
	return &copied, nil
}

// SetQuantity seeds a ledger row for the tenant in ctx
func (s *InMemoryInventoryStore) SetQuantity(ctx context.Context, itemID, locationID string, qty int) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	tenantID := types.GetTenantID(ctx)
	s.ledger[ledgerKey(tenantID, itemID, locationID)] = &inventory.LocationQuantity{
		TenantID:        tenantID,
		InventoryItemID: itemID,
		LocationID:      locationID,
		Quantity:        qty,
		UpdatedAt:       time.Now().UTC(),
	}
}

func (s *InMemoryInventoryStore) GetQuantity(ctx context.Context, itemID, locationID string) (int, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	row, ok := s.ledger[ledgerKey(types.GetTenantID(ctx), itemID, locationID)]
	if !ok {
		return 0, nil
	}
	return row.Quantity, nil
}

func (s *InMemoryInventoryStore) Increment(ctx context.Context, itemID, locationID string, qty int) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	tenantID := types.GetTenantID(ctx)
	key := ledgerKey(tenantID, itemID, locationID)
	row, ok := s.ledger[key]
	if !ok {
		row = &inventory.LocationQuantity{
			TenantID:        tenantID,
			InventoryItemID: itemID,
			LocationID:      locationID,
		}
		s.ledger[key] = row
	}
	row.Quantity += qty
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryInventoryStore) Decrement(ctx context.Context, itemID, locationID string, qty int) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	row, ok := s.ledger[ledgerKey(types.GetTenantID(ctx), itemID, locationID)]
	if !ok || row.Quantity < qty {
		available := 0
		if ok {
			available = row.Quantity
		}
		return ierr.NewError("insufficient stock").
			WithHintf("Insufficient stock. Available: %d, Requested: %d", available, qty).
			WithReportableDetails(map[string]any{
				"inventory_item_id": itemID,
				"location_id":       locationID,
				"available":         available,
				"requested":         qty,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	row.Quantity -= qty
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryInventoryStore) Clear() {
	s.InMemoryStore.Clear()

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	s.ledger = make(map[string]*inventory.LocationQuantity)
}
