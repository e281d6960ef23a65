package testutil

import (
	"context"
	"fmt"

	"github.com/shopbench/shopbench/internal/domain/integration"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
)

// InMemoryIntegrationStore keys integrations by tenant and type
type InMemoryIntegrationStore struct {
	*InMemoryStore[*integration.Integration]
}

func NewInMemoryIntegrationStore() *InMemoryIntegrationStore {
	return &InMemoryIntegrationStore{
		InMemoryStore: NewInMemoryStore[*integration.Integration](),
	}
}

func integrationKey(tenantID string, integrationType types.IntegrationType) string {
	return fmt.Sprintf("%s/%s", tenantID, integrationType)
}

func (s *InMemoryIntegrationStore) Get(ctx context.Context, integrationType types.IntegrationType) (*integration.Integration, error) {
	i, err := s.InMemoryStore.Get(ctx, integrationKey(types.GetTenantID(ctx), integrationType))
	if err != nil || !CheckPublished(i.Status) {
		return nil, ierr.NewError("integration not found").
			WithHintf("No %s integration configured", integrationType).
			Mark(ierr.ErrNotFound)
	}
	copied := *i
	return &copied, nil
}

func (s *InMemoryIntegrationStore) Upsert(ctx context.Context, i *integration.Integration) error {
	key := integrationKey(i.TenantID, i.Type)
	copied := *i

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok {
		copied.ID = existing.ID
		copied.CreatedAt = existing.CreatedAt
		copied.CreatedBy = existing.CreatedBy
	}
	s.items[key] = &copied
	return nil
}
