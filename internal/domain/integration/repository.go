package integration

import (
	"context"

	"github.com/shopbench/shopbench/internal/types"
)

type Repository interface {
	// Get returns the tenant's integration of the given type
	Get(ctx context.Context, integrationType types.IntegrationType) (*Integration, error)
	// Upsert creates or replaces the tenant's integration of the same type
	Upsert(ctx context.Context, i *Integration) error
}
