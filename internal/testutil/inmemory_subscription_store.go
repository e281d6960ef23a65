package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/domain/subscription"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
)

// InMemorySubscriptionStore keeps subscriptions and their payment ledger.
// The ledger enforces the (subscription_id, billing_period_start) uniqueness
// the database has.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]

	paymentsMu sync.RWMutex
	payments   map[string]*subscription.Payment
	// createErrs makes CreatePayment fail for the keyed subscription
	createErrs map[string]error
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
		payments:      make(map[string]*subscription.Payment),
		createErrs:    make(map[string]error),
	}
}

// FailCreatePayment makes every CreatePayment for subscriptionID return err
func (s *InMemorySubscriptionStore) FailCreatePayment(subscriptionID string, err error) {
	s.paymentsMu.Lock()
	defer s.paymentsMu.Unlock()
	s.createErrs[subscriptionID] = err
}

func subscriptionNotFound(details map[string]any) error {
	return ierr.NewError("subscription not found").
		WithHint("Subscription not found").
		WithReportableDetails(details).
		Mark(ierr.ErrNotFound)
}

func (s *InMemorySubscriptionStore) visible(ctx context.Context, sub *subscription.Subscription) bool {
	return CheckTenantFilter(ctx, sub.TenantID) && CheckPublished(sub.Status)
}

func (s *InMemorySubscriptionStore) GetByTenant(ctx context.Context) (*subscription.Subscription, error) {
	subs, err := s.List(ctx, nil, func(ctx context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return s.visible(ctx, sub)
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, subscriptionNotFound(map[string]any{"tenant_id": types.GetTenantID(ctx)})
	}
	copied := *subs[0]
	return &copied, nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !s.visible(ctx, sub) {
		return nil, subscriptionNotFound(map[string]any{"subscription_id": id})
	}
	copied := *sub
	return &copied, nil
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	existing, _ := s.List(ctx, nil, func(_ context.Context, other *subscription.Subscription, _ interface{}) bool {
		return other.TenantID == sub.TenantID && CheckPublished(other.Status)
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("subscription already exists").
			WithHint("Subscription already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	copied := *sub
	return s.InMemoryStore.Create(ctx, sub.ID, &copied)
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	return s.Mutate(ctx, sub.ID, func(current *subscription.Subscription) (*subscription.Subscription, error) {
		if !s.visible(ctx, current) {
			return nil, subscriptionNotFound(map[string]any{"subscription_id": sub.ID})
		}
		copied := *sub
		return &copied, nil
	})
}

func (s *InMemorySubscriptionStore) UpdateStatus(ctx context.Context, id string, status types.SubscriptionStatus) error {
	return s.Mutate(ctx, id, func(current *subscription.Subscription) (*subscription.Subscription, error) {
		if !s.visible(ctx, current) {
			return nil, subscriptionNotFound(map[string]any{"subscription_id": id})
		}
		updated := *current
		updated.SubscriptionStatus = status
		updated.UpdatedAt = time.Now().UTC()
		return &updated, nil
	})
}

func (s *InMemorySubscriptionStore) UpdateMonthlyAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	return s.Mutate(ctx, id, func(current *subscription.Subscription) (*subscription.Subscription, error) {
		if !s.visible(ctx, current) {
			return nil, subscriptionNotFound(map[string]any{"subscription_id": id})
		}
		updated := *current
		updated.MonthlyAmount = amount
		updated.UpdatedAt = time.Now().UTC()
		return &updated, nil
	})
}

func (s *InMemorySubscriptionStore) ListDueForBilling(ctx context.Context, day int) ([]*subscription.Subscription, error) {
	subs, err := s.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.BillingDay == day && sub.SubscriptionStatus.IsBillable() && CheckPublished(sub.Status)
	}, func(a, b *subscription.Subscription) bool {
		return a.TenantID < b.TenantID
	})
	if err != nil {
		return nil, err
	}

	result := make([]*subscription.Subscription, 0, len(subs))
	for _, sub := range subs {
		copied := *sub
		result = append(result, &copied)
	}
	return result, nil
}

func (s *InMemorySubscriptionStore) FindByExternalID(ctx context.Context, externalSubscriptionID string) (*subscription.Subscription, error) {
	subs, err := s.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.ExternalSubscriptionID != nil &&
			*sub.ExternalSubscriptionID == externalSubscriptionID &&
			CheckPublished(sub.Status)
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, subscriptionNotFound(map[string]any{"external_subscription_id": externalSubscriptionID})
	}
	copied := *subs[0]
	return &copied, nil
}

func (s *InMemorySubscriptionStore) CreatePayment(ctx context.Context, p *subscription.Payment) error {
	s.paymentsMu.Lock()
	defer s.paymentsMu.Unlock()

	if err, ok := s.createErrs[p.SubscriptionID]; ok {
		return err
	}

	for _, existing := range s.payments {
		if existing.SubscriptionID == p.SubscriptionID && existing.BillingPeriodStart.Equal(p.BillingPeriodStart) {
			return ierr.NewError("subscription payment already exists").
				WithHint("Subscription payment already exists").
				WithReportableDetails(map[string]any{
					"subscription_id":      p.SubscriptionID,
					"billing_period_start": p.BillingPeriodStart,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	copied := *p
	s.payments[p.ID] = &copied
	return nil
}

func (s *InMemorySubscriptionStore) GetPaymentForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (*subscription.Payment, error) {
	s.paymentsMu.RLock()
	defer s.paymentsMu.RUnlock()

	for _, p := range s.payments {
		if p.SubscriptionID == subscriptionID &&
			p.BillingPeriodStart.Equal(periodStart) &&
			CheckTenantFilter(ctx, p.TenantID) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ierr.NewError("subscription payment not found").
		WithHint("Subscription payment not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemorySubscriptionStore) GetOldestPaymentWithStatus(ctx context.Context, subscriptionID string, statuses ...types.SubscriptionPaymentStatus) (*subscription.Payment, error) {
	s.paymentsMu.RLock()
	defer s.paymentsMu.RUnlock()

	var oldest *subscription.Payment
	for _, p := range s.payments {
		if p.SubscriptionID != subscriptionID || !CheckTenantFilter(ctx, p.TenantID) {
			continue
		}
		if !lo.Contains(statuses, p.PaymentStatus) {
			continue
		}
		if oldest == nil || p.BillingPeriodStart.Before(oldest.BillingPeriodStart) {
			oldest = p
		}
	}
	if oldest == nil {
		return nil, ierr.NewError("subscription payment not found").
			WithHint("Subscription payment not found").
			Mark(ierr.ErrNotFound)
	}
	copied := *oldest
	return &copied, nil
}

func (s *InMemorySubscriptionStore) UpdatePayment(ctx context.Context, p *subscription.Payment) error {
	s.paymentsMu.Lock()
	defer s.paymentsMu.Unlock()

	current, ok := s.payments[p.ID]
	if !ok || !CheckTenantFilter(ctx, current.TenantID) {
		return ierr.NewError("subscription payment not found").
			WithHint("Subscription payment not found").
			Mark(ierr.ErrNotFound)
	}

	copied := *p
	s.payments[p.ID] = &copied
	return nil
}

func (s *InMemorySubscriptionStore) filterPayments(ctx context.Context, filter *types.BillingHistoryFilter) []*subscription.Payment {
	s.paymentsMu.RLock()
	defer s.paymentsMu.RUnlock()

	var result []*subscription.Payment
	for _, p := range s.payments {
		if !CheckTenantFilter(ctx, p.TenantID) {
			continue
		}
		if filter != nil && filter.Status != nil && p.PaymentStatus != *filter.Status {
			continue
		}
		copied := *p
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BillingPeriodStart.After(result[j].BillingPeriodStart)
	})
	return result
}

func (s *InMemorySubscriptionStore) ListPayments(ctx context.Context, filter *types.BillingHistoryFilter) ([]*subscription.Payment, error) {
	var queryFilter *types.QueryFilter
	if filter != nil {
		queryFilter = filter.QueryFilter
	}
	return Paginate(s.filterPayments(ctx, filter), queryFilter), nil
}

func (s *InMemorySubscriptionStore) CountPayments(ctx context.Context, filter *types.BillingHistoryFilter) (int, error) {
	return len(s.filterPayments(ctx, filter)), nil
}

// PaymentCount returns the number of ledger rows across all tenants
func (s *InMemorySubscriptionStore) PaymentCount() int {
	s.paymentsMu.RLock()
	defer s.paymentsMu.RUnlock()
	return len(s.payments)
}

func (s *InMemorySubscriptionStore) Clear() {
	s.InMemoryStore.Clear()

	s.paymentsMu.Lock()
	defer s.paymentsMu.Unlock()
	s.payments = make(map[string]*subscription.Payment)
	s.createErrs = make(map[string]error)
}
