package testutil

import (
	"context"

	"github.com/shopbench/shopbench/internal/domain/tenant"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

type InMemoryTenantStore struct {
	*InMemoryStore[*tenant.Tenant]
}

func NewInMemoryTenantStore() *InMemoryTenantStore {
	return &InMemoryTenantStore{
		InMemoryStore: NewInMemoryStore[*tenant.Tenant](),
	}
}

func (s *InMemoryTenantStore) Create(ctx context.Context, t *tenant.Tenant) error {
	return s.InMemoryStore.Create(ctx, t.ID, t)
}

func (s *InMemoryTenantStore) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tenant not found").
			Mark(ierr.ErrNotFound)
	}
	return t, nil
}
