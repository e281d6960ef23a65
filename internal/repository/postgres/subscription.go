package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/domain/subscription"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
)

const subscriptionColumns = `id, provider, external_customer_id, external_card_id, external_subscription_id,
	subscription_status, monthly_amount, currency, billing_day, autopay_enabled,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const subscriptionPaymentColumns = `id, subscription_id, amount, currency, payment_status,
	billing_period_start, billing_period_end, location_count, failure_reason, processor_payment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) GetByTenant(ctx context.Context) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE tenant_id = $1 AND status = $2`

	var sub subscription.Subscription
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Subscription", nil)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	var sub subscription.Subscription
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Subscription", map[string]any{"subscription_id": id})
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, provider, external_customer_id, external_card_id, external_subscription_id,
			subscription_status, monthly_amount, currency, billing_day, autopay_enabled,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :provider, :external_customer_id, :external_card_id, :external_subscription_id,
			:subscription_status, :monthly_amount, :currency, :billing_day, :autopay_enabled,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"tenant_id", sub.TenantID,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub); err != nil {
		return wrapQueryError(err, "Subscription", map[string]any{"tenant_id": sub.TenantID})
	}
	return nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		UPDATE subscriptions SET
			provider = :provider,
			external_customer_id = :external_customer_id,
			external_card_id = :external_card_id,
			external_subscription_id = :external_subscription_id,
			subscription_status = :subscription_status,
			monthly_amount = :monthly_amount,
			autopay_enabled = :autopay_enabled,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status = 'published'`

	sub.Touch(ctx, time.Now())

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return wrapQueryError(err, "Subscription", map[string]any{"subscription_id": sub.ID})
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return notFound("Subscription", map[string]any{"subscription_id": sub.ID})
	}
	return nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, id string, status types.SubscriptionStatus) error {
	query := `
		UPDATE subscriptions
		SET subscription_status = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		status, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return wrapQueryError(err, "Subscription", map[string]any{"subscription_id": id})
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return notFound("Subscription", map[string]any{"subscription_id": id})
	}
	return nil
}

func (r *subscriptionRepository) UpdateMonthlyAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	query := `
		UPDATE subscriptions
		SET monthly_amount = $1, updated_at = NOW(), updated_by = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		amount, types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return wrapQueryError(err, "Subscription", map[string]any{"subscription_id": id})
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return notFound("Subscription", map[string]any{"subscription_id": id})
	}
	return nil
}

func (r *subscriptionRepository) ListDueForBilling(ctx context.Context, day int) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE billing_day = $1
		AND subscription_status IN ($2, $3)
		AND status = $4
		ORDER BY tenant_id`

	r.logger.Debugw("listing subscriptions due for billing", "billing_day", day)

	var subs []*subscription.Subscription
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &subs, query,
		day,
		types.SubscriptionStatusActive,
		types.SubscriptionStatusPending,
		types.StatusPublished,
	)
	if err != nil {
		return nil, wrapQueryError(err, "Subscription", nil)
	}
	return subs, nil
}

func (r *subscriptionRepository) FindByExternalID(ctx context.Context, externalSubscriptionID string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE external_subscription_id = $1 AND status = $2`

	var sub subscription.Subscription
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, externalSubscriptionID, types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Subscription", map[string]any{"external_subscription_id": externalSubscriptionID})
	}
	return &sub, nil
}

func (r *subscriptionRepository) CreatePayment(ctx context.Context, p *subscription.Payment) error {
	query := `
		INSERT INTO subscription_payments (
			id, subscription_id, amount, currency, payment_status,
			billing_period_start, billing_period_end, location_count, failure_reason, processor_payment_id,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :subscription_id, :amount, :currency, :payment_status,
			:billing_period_start, :billing_period_end, :location_count, :failure_reason, :processor_payment_id,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating subscription payment",
		"subscription_id", p.SubscriptionID,
		"billing_period_start", p.BillingPeriodStart,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p); err != nil {
		return wrapQueryError(err, "Subscription payment", map[string]any{
			"subscription_id":      p.SubscriptionID,
			"billing_period_start": p.BillingPeriodStart,
		})
	}
	return nil
}

func (r *subscriptionRepository) GetPaymentForPeriod(ctx context.Context, subscriptionID string, periodStart time.Time) (*subscription.Payment, error) {
	query := `SELECT ` + subscriptionPaymentColumns + `
		FROM subscription_payments
		WHERE subscription_id = $1 AND billing_period_start = $2 AND tenant_id = $3`

	var p subscription.Payment
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, subscriptionID, periodStart, types.GetTenantID(ctx))
	if err != nil {
		return nil, wrapQueryError(err, "Subscription payment", map[string]any{
			"subscription_id":      subscriptionID,
			"billing_period_start": periodStart,
		})
	}
	return &p, nil
}

func (r *subscriptionRepository) GetOldestPaymentWithStatus(ctx context.Context, subscriptionID string, statuses ...types.SubscriptionPaymentStatus) (*subscription.Payment, error) {
	query := `SELECT ` + subscriptionPaymentColumns + `
		FROM subscription_payments
		WHERE subscription_id = $1 AND tenant_id = $2 AND status = $3 AND payment_status = ANY($4)
		ORDER BY billing_period_start ASC
		LIMIT 1`

	var p subscription.Payment
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query,
		subscriptionID, types.GetTenantID(ctx), types.StatusPublished,
		pq.Array(lo.Map(statuses, func(s types.SubscriptionPaymentStatus, _ int) string { return string(s) })))
	if err != nil {
		return nil, wrapQueryError(err, "Subscription payment", map[string]any{
			"subscription_id": subscriptionID,
			"payment_status":  statuses,
		})
	}
	return &p, nil
}

func (r *subscriptionRepository) UpdatePayment(ctx context.Context, p *subscription.Payment) error {
	query := `
		UPDATE subscription_payments SET
			payment_status = :payment_status,
			failure_reason = :failure_reason,
			processor_payment_id = :processor_payment_id,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	p.Touch(ctx, time.Now())

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		return wrapQueryError(err, "Subscription payment", map[string]any{"payment_id": p.ID})
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return notFound("Subscription payment", map[string]any{"payment_id": p.ID})
	}
	return nil
}

func (r *subscriptionRepository) ListPayments(ctx context.Context, filter *types.BillingHistoryFilter) ([]*subscription.Payment, error) {
	where, args := paymentFilterClause(ctx, filter)
	query := fmt.Sprintf(`SELECT %s
		FROM subscription_payments
		%s
		ORDER BY billing_period_start DESC
		LIMIT $%d OFFSET $%d`, subscriptionPaymentColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.GetLimit(), filter.GetOffset())

	var payments []*subscription.Payment
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, wrapQueryError(err, "Subscription payment", nil)
	}
	return payments, nil
}

func (r *subscriptionRepository) CountPayments(ctx context.Context, filter *types.BillingHistoryFilter) (int, error) {
	where, args := paymentFilterClause(ctx, filter)
	query := `SELECT COUNT(*) FROM subscription_payments ` + where

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, args...); err != nil {
		return 0, wrapQueryError(err, "Subscription payment", nil)
	}
	return count, nil
}

func paymentFilterClause(ctx context.Context, filter *types.BillingHistoryFilter) (string, []interface{}) {
	where := `WHERE tenant_id = $1 AND status = $2`
	args := []interface{}{types.GetTenantID(ctx), types.StatusPublished}
	if filter != nil && filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(` AND payment_status = $%d`, len(args))
	}
	return where, args
}
