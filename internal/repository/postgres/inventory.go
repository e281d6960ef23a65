package postgres

import (
	"context"

	"github.com/shopbench/shopbench/internal/domain/inventory"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	"github.com/shopbench/shopbench/internal/types"
)

type inventoryRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInventoryRepository(db *postgres.DB, logger *logger.Logger) inventory.Repository {
	return &inventoryRepository{db: db, logger: logger}
}

func (r *inventoryRepository) GetItem(ctx context.Context, id string) (*inventory.Item, error) {
	query := `
		SELECT id, sku, name, tenant_id, status, created_at, updated_at, created_by, updated_by
		FROM inventory_items
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	var item inventory.Item
	err := r.db.GetQuerier(ctx).GetContext(ctx, &item, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Inventory item", map[string]any{"inventory_item_id": id})
	}
	return &item, nil
}

func (r *inventoryRepository) GetQuantity(ctx context.Context, itemID, locationID string) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM inventory_location_quantities
		WHERE tenant_id = $1 AND inventory_item_id = $2 AND location_id = $3`

	var qty int
	err := r.db.GetQuerier(ctx).GetContext(ctx, &qty, query, types.GetTenantID(ctx), itemID, locationID)
	if err != nil {
		return 0, wrapQueryError(err, "Inventory quantity", nil)
	}
	return qty, nil
}

func (r *inventoryRepository) Increment(ctx context.Context, itemID, locationID string, qty int) error {
	query := `
		INSERT INTO inventory_location_quantities (tenant_id, inventory_item_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (tenant_id, inventory_item_id, location_id)
		DO UPDATE SET
			quantity = inventory_location_quantities.quantity + EXCLUDED.quantity,
			updated_at = NOW()`

	r.logger.Debugw("incrementing inventory",
		"inventory_item_id", itemID,
		"location_id", locationID,
		"quantity", qty,
	)

	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, types.GetTenantID(ctx), itemID, locationID, qty); err != nil {
		return wrapQueryError(err, "Inventory quantity", nil)
	}
	return nil
}

func (r *inventoryRepository) Decrement(ctx context.Context, itemID, locationID string, qty int) error {
	query := `
		UPDATE inventory_location_quantities
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE tenant_id = $2 AND inventory_item_id = $3 AND location_id = $4
		AND quantity >= $1`

	r.logger.Debugw("decrementing inventory",
		"inventory_item_id", itemID,
		"location_id", locationID,
		"quantity", qty,
	)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, qty, types.GetTenantID(ctx), itemID, locationID)
	if err != nil {
		return wrapQueryError(err, "Inventory quantity", nil)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return wrapQueryError(err, "Inventory quantity", nil)
	}
	if rows == 0 {
		return ierr.NewError("insufficient quantity at source location").
			WithHint("Insufficient quantity at source location").
			WithReportableDetails(map[string]any{
				"inventory_item_id": itemID,
				"location_id":       locationID,
				"requested":         qty,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}
