package postgres

import (
	"context"
	"time"

	"github.com/shopbench/shopbench/internal/domain/integration"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	"github.com/shopbench/shopbench/internal/types"
)

type integrationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewIntegrationRepository(db *postgres.DB, logger *logger.Logger) integration.Repository {
	return &integrationRepository{db: db, logger: logger}
}

func (r *integrationRepository) Get(ctx context.Context, integrationType types.IntegrationType) (*integration.Integration, error) {
	query := `
		SELECT id, integration_type, provider, enabled, encrypted_credentials, settings,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		FROM integrations
		WHERE tenant_id = $1 AND integration_type = $2 AND status = $3`

	var i integration.Integration
	err := r.db.GetQuerier(ctx).GetContext(ctx, &i, query, types.GetTenantID(ctx), integrationType, types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Integration", map[string]any{"type": integrationType})
	}
	return &i, nil
}

func (r *integrationRepository) Upsert(ctx context.Context, i *integration.Integration) error {
	query := `
		INSERT INTO integrations (
			id, integration_type, provider, enabled, encrypted_credentials, settings,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :integration_type, :provider, :enabled, :encrypted_credentials, :settings,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)
		ON CONFLICT (tenant_id, integration_type) DO UPDATE SET
			provider = EXCLUDED.provider,
			enabled = EXCLUDED.enabled,
			encrypted_credentials = EXCLUDED.encrypted_credentials,
			settings = EXCLUDED.settings,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`

	i.Touch(ctx, time.Now())

	r.logger.Debugw("upserting integration",
		"tenant_id", i.TenantID,
		"type", i.Type,
		"provider", i.Provider,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, i); err != nil {
		return wrapQueryError(err, "Integration", map[string]any{"type": i.Type})
	}
	return nil
}
