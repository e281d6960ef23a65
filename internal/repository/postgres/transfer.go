package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopbench/shopbench/internal/domain/transfer"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	"github.com/shopbench/shopbench/internal/types"
)

const transferColumns = `id, from_location_id, to_location_id, inventory_item_id, quantity,
	transfer_status, transferred_by, notes, completed_at, cancelled_at,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

type transferRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTransferRepository(db *postgres.DB, logger *logger.Logger) transfer.Repository {
	return &transferRepository{db: db, logger: logger}
}

func (r *transferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	query := `
		INSERT INTO inventory_transfers (
			id, from_location_id, to_location_id, inventory_item_id, quantity,
			transfer_status, transferred_by, notes,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :from_location_id, :to_location_id, :inventory_item_id, :quantity,
			:transfer_status, :transferred_by, :notes,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, t); err != nil {
		return wrapQueryError(err, "Inventory transfer", map[string]any{"transfer_id": t.ID})
	}
	return nil
}

func (r *transferRepository) Get(ctx context.Context, id string) (*transfer.Transfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM inventory_transfers
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	var t transfer.Transfer
	err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Inventory transfer", map[string]any{"transfer_id": id})
	}
	return &t, nil
}

func (r *transferRepository) List(ctx context.Context, filter *types.InventoryTransferFilter) ([]*transfer.Transfer, error) {
	where, args := transferFilterClause(ctx, filter)
	order := types.OrderDesc
	if filter.GetOrder() == types.OrderAsc {
		order = types.OrderAsc
	}
	query := fmt.Sprintf(`SELECT %s
		FROM inventory_transfers
		%s
		ORDER BY created_at %s
		LIMIT $%d OFFSET $%d`, transferColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, filter.GetLimit(), filter.GetOffset())

	var transfers []*transfer.Transfer
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &transfers, query, args...); err != nil {
		return nil, wrapQueryError(err, "Inventory transfer", nil)
	}
	return transfers, nil
}

func (r *transferRepository) Count(ctx context.Context, filter *types.InventoryTransferFilter) (int, error) {
	where, args := transferFilterClause(ctx, filter)

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM inventory_transfers `+where, args...); err != nil {
		return 0, wrapQueryError(err, "Inventory transfer", nil)
	}
	return count, nil
}

// Transition guards on transfer_status = 'pending' so two racing
// completions cannot both apply their ledger changes.
func (r *transferRepository) Transition(ctx context.Context, id string, status types.InventoryTransferStatus, at time.Time) error {
	var timestampColumn string
	switch status {
	case types.InventoryTransferStatusCompleted:
		timestampColumn = "completed_at"
	case types.InventoryTransferStatusCancelled:
		timestampColumn = "cancelled_at"
	default:
		return ierr.NewErrorf("cannot transition transfer to %s", status).
			WithHint("Invalid transfer status").
			Mark(ierr.ErrValidation)
	}

	query := fmt.Sprintf(`
		UPDATE inventory_transfers
		SET transfer_status = $1, %s = $2, updated_at = NOW(), updated_by = $3
		WHERE id = $4 AND tenant_id = $5 AND status = $6 AND transfer_status = $7`, timestampColumn)

	r.logger.Debugw("transitioning inventory transfer",
		"transfer_id", id,
		"tenant_id", types.GetTenantID(ctx),
		"transfer_status", status,
	)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		status, at, types.GetUserID(ctx), id, types.GetTenantID(ctx),
		types.StatusPublished, types.InventoryTransferStatusPending)
	if err != nil {
		return wrapQueryError(err, "Inventory transfer", map[string]any{"transfer_id": id})
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return wrapQueryError(err, "Inventory transfer", map[string]any{"transfer_id": id})
	}
	if rows == 0 {
		return ierr.NewError("transfer is no longer pending").
			WithHint("Transfer is no longer pending").
			WithReportableDetails(map[string]any{"transfer_id": id}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func transferFilterClause(ctx context.Context, filter *types.InventoryTransferFilter) (string, []interface{}) {
	where := `WHERE tenant_id = $1 AND status = $2`
	args := []interface{}{types.GetTenantID(ctx), types.StatusPublished}
	if filter == nil {
		return where, args
	}
	if filter.TransferStatus != nil {
		args = append(args, *filter.TransferStatus)
		where += fmt.Sprintf(` AND transfer_status = $%d`, len(args))
	}
	if filter.LocationID != "" {
		args = append(args, filter.LocationID)
		where += fmt.Sprintf(` AND (from_location_id = $%d OR to_location_id = $%d)`, len(args), len(args))
	}
	if filter.InventoryItemID != "" {
		args = append(args, filter.InventoryItemID)
		where += fmt.Sprintf(` AND inventory_item_id = $%d`, len(args))
	}
	return where, args
}
