package subscription

import (
	"context"
	"time"

	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
)

// Repository persists subscriptions and their payment ledger.
// Unless noted, methods are scoped to the tenant in ctx.
type Repository interface {
	// GetByTenant returns the current tenant's subscription
	GetByTenant(ctx context.Context) (*Subscription, error)
	Get(ctx context.Context, id string) (*Subscription, error)
	Create(ctx context.Context, sub *Subscription) error
	Update(ctx context.Context, sub *Subscription) error
	UpdateStatus(ctx context.Context, id string, status types.SubscriptionStatus) error
	UpdateMonthlyAmount(ctx context.Context, id string, amount decimal.Decimal) error

	// ListDueForBilling is not tenant scoped. It returns billable subscriptions of
	// every tenant whose billing day is day.
	ListDueForBilling(ctx context.Context, day int) ([]*Subscription, error)
	// FindByExternalID is not tenant scoped; webhooks learn the tenant from it
	FindByExternalID(ctx context.Context, externalSubscriptionID string) (*Subscription, error)

	// CreatePayment returns an ErrAlreadyExists error when the period is already recorded
	CreatePayment(ctx context.Context, payment *Payment) error
	GetPaymentForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (*Payment, error)
	// GetOldestPaymentWithStatus returns the earliest period whose row is in
	// one of statuses, or an ErrNotFound error
	GetOldestPaymentWithStatus(ctx context.Context, subscriptionID string, statuses ...types.SubscriptionPaymentStatus) (*Payment, error)
	UpdatePayment(ctx context.Context, payment *Payment) error
	ListPayments(ctx context.Context, filter *types.BillingHistoryFilter) ([]*Payment, error)
	CountPayments(ctx context.Context, filter *types.BillingHistoryFilter) (int, error)
}
