package postgres

import (
	"context"

	"github.com/shopbench/shopbench/internal/domain/tenant"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
)

type tenantRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTenantRepository(db *postgres.DB, logger *logger.Logger) tenant.Repository {
	return &tenantRepository{db: db, logger: logger}
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, billing_email, status, created_at, updated_at
		FROM tenants
		WHERE id = $1 AND status = 'published'`

	var t tenant.Tenant
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query, id); err != nil {
		return nil, wrapQueryError(err, "Tenant", map[string]any{"tenant_id": id})
	}
	return &t, nil
}
