package postgres

import (
	"context"

	"github.com/shopbench/shopbench/internal/domain/location"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	"github.com/shopbench/shopbench/internal/types"
)

const locationColumns = `id, name, is_free, tenant_id, status, created_at, updated_at, created_by, updated_by`

type locationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewLocationRepository(db *postgres.DB, logger *logger.Logger) location.Repository {
	return &locationRepository{db: db, logger: logger}
}

func (r *locationRepository) Get(ctx context.Context, id string) (*location.Location, error) {
	query := `SELECT ` + locationColumns + `
		FROM locations
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	var loc location.Location
	err := r.db.GetQuerier(ctx).GetContext(ctx, &loc, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Location", map[string]any{"location_id": id})
	}
	return &loc, nil
}

func (r *locationRepository) GetFirst(ctx context.Context) (*location.Location, error) {
	query := `SELECT ` + locationColumns + `
		FROM locations
		WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1`

	var loc location.Location
	err := r.db.GetQuerier(ctx).GetContext(ctx, &loc, query, types.GetTenantID(ctx))
	if err != nil {
		return nil, wrapQueryError(err, "Location", nil)
	}
	return &loc, nil
}

func (r *locationRepository) CountByBilling(ctx context.Context) (*location.BillingCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE NOT is_free) AS billable,
			COUNT(*) FILTER (WHERE is_free) AS free
		FROM locations
		WHERE tenant_id = $1 AND status = $2`

	var counts location.BillingCounts
	err := r.db.GetQuerier(ctx).GetContext(ctx, &counts, query, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Location", nil)
	}
	return &counts, nil
}

func (r *locationRepository) UpdateIsFree(ctx context.Context, id string, isFree bool) error {
	query := `
		UPDATE locations
		SET is_free = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`

	r.logger.Debugw("updating location billing flag",
		"location_id", id,
		"tenant_id", types.GetTenantID(ctx),
		"is_free", isFree,
	)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		isFree, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return wrapQueryError(err, "Location", map[string]any{"location_id": id})
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return notFound("Location", map[string]any{"location_id": id})
	}
	return nil
}
