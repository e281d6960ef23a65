package testutil

import (
	"context"
	"time"

	"github.com/shopbench/shopbench/internal/domain/location"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
)

type InMemoryLocationStore struct {
	*InMemoryStore[*location.Location]
}

func NewInMemoryLocationStore() *InMemoryLocationStore {
	return &InMemoryLocationStore{
		InMemoryStore: NewInMemoryStore[*location.Location](),
	}
}

func (s *InMemoryLocationStore) Create(ctx context.Context, l *location.Location) error {
	return s.InMemoryStore.Create(ctx, l.ID, l)
}

func (s *InMemoryLocationStore) visible(ctx context.Context, l *location.Location) bool {
	return CheckTenantFilter(ctx, l.TenantID) && CheckPublished(l.Status)
}

func (s *InMemoryLocationStore) Get(ctx context.Context, id string) (*location.Location, error) {
	l, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !s.visible(ctx, l) {
		return nil, ierr.NewError("location not found").
			WithHint("Location not found").
			WithReportableDetails(map[string]any{"location_id": id}).
			Mark(ierr.ErrNotFound)
	}
	copied := *l
	return &copied, nil
}

func (s *InMemoryLocationStore) GetFirst(ctx context.Context) (*location.Location, error) {
	locations, err := s.List(ctx, nil, func(ctx context.Context, l *location.Location, _ interface{}) bool {
		return CheckTenantFilter(ctx, l.TenantID)
	}, func(a, b *location.Location) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, ierr.NewError("location not found").
			WithHint("The tenant has no locations").
			Mark(ierr.ErrNotFound)
	}
	copied := *locations[0]
	return &copied, nil
}

func (s *InMemoryLocationStore) CountByBilling(ctx context.Context) (*location.BillingCounts, error) {
	locations, err := s.List(ctx, nil, func(ctx context.Context, l *location.Location, _ interface{}) bool {
		return s.visible(ctx, l)
	}, nil)
	if err != nil {
		return nil, err
	}

	counts := &location.BillingCounts{}
	for _, l := range locations {
		if l.IsFree {
			counts.Free++
		} else {
			counts.Billable++
		}
	}
	return counts, nil
}

func (s *InMemoryLocationStore) UpdateIsFree(ctx context.Context, id string, isFree bool) error {
	return s.Mutate(ctx, id, func(l *location.Location) (*location.Location, error) {
		if !s.visible(ctx, l) {
			return nil, ierr.NewError("location not found").
				WithHint("Location not found").
				Mark(ierr.ErrNotFound)
		}
		updated := *l
		updated.IsFree = isFree
		updated.UpdatedAt = time.Now().UTC()
		updated.UpdatedBy = types.GetUserID(ctx)
		return &updated, nil
	})
}
