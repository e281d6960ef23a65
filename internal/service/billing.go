package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/domain/subscription"
	"github.com/shopbench/shopbench/internal/email"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/idempotency"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/panics"
)

// BillingService owns the location based subscription of a tenant: the
// monthly amount, the processor agreement and the monthly payment ledger.
type BillingService interface {
	// CalculateMonthlyAmount recomputes the bill from the current locations. Never cached.
	CalculateMonthlyAmount(ctx context.Context) (*dto.MonthlyAmountResponse, error)

	GetSubscription(ctx context.Context) (*dto.SubscriptionResponse, error)
	CreateOrUpdateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	EnableAutopay(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	// DisableAutopay flips the local flag only. The processor subscription is left running.
	DisableAutopay(ctx context.Context) (*dto.SubscriptionResponse, error)
	ToggleLocationBilling(ctx context.Context, locationID string, req *dto.ToggleLocationBillingRequest) (*dto.ToggleLocationBillingResponse, error)
	GetBillingHistory(ctx context.Context, filter *types.BillingHistoryFilter) (*dto.ListSubscriptionPaymentsResponse, error)
	HandlePaymentFailure(ctx context.Context, subscriptionID string, reason string) error

	// ProcessMonthlyBilling is the daily job. It is a no-op unless today is the configured billing day.
	ProcessMonthlyBilling(ctx context.Context) (*dto.BillingRunResponse, error)
	// ProcessSubscriptionBilling records the current period's payment row once.
	// The bool reports whether a new row was created.
	ProcessSubscriptionBilling(ctx context.Context, sub *subscription.Subscription) (*subscription.Payment, bool, error)
	// ReconcileSubscriptionPayment settles the current period from a processor subscription event
	ReconcileSubscriptionPayment(ctx context.Context, event *base.WebhookEvent) error
}

type billingService struct {
	ServiceParams
	now func() time.Time
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
		now:           time.Now,
	}
}

func (s *billingService) CalculateMonthlyAmount(ctx context.Context) (*dto.MonthlyAmountResponse, error) {
	counts, err := s.LocationRepo.CountByBilling(ctx)
	if err != nil {
		return nil, err
	}

	unitPrice := s.Config.Billing.GetUnitPrice()
	return &dto.MonthlyAmountResponse{
		Amount:            unitPrice.Mul(decimal.NewFromInt(int64(counts.Billable))),
		LocationCount:     counts.Billable,
		FreeLocationCount: counts.Free,
		UnitPrice:         unitPrice,
		Currency:          s.Config.Billing.Currency,
	}, nil
}

func (s *billingService) GetSubscription(ctx context.Context) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetByTenant(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *billingService) CreateOrUpdateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)

	resolved, err := s.IntegrationFactory.GetPaymentProvider(ctx)
	if err != nil {
		return nil, err
	}
	provider := resolved.Provider

	amount, err := s.CalculateMonthlyAmount(ctx)
	if err != nil {
		return nil, err
	}
	if !amount.Amount.IsPositive() {
		return nil, ierr.NewError("no billable locations").
			WithHint("Add at least one billable location before enabling autopay").
			WithReportableDetails(map[string]any{
				"free_location_count": amount.FreeLocationCount,
			}).
			Mark(ierr.ErrConfiguration)
	}

	existing, err := s.SubRepo.GetByTenant(ctx)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	// reuse the processor customer of a previous subscription
	var customerID string
	if existing != nil && existing.ExternalCustomerID != nil {
		customerID = *existing.ExternalCustomerID
	} else {
		t, err := s.TenantRepo.GetByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		customer, err := provider.CreateCustomer(ctx, &base.CreateCustomerParams{
			ReferenceID: tenantID,
			Name:        t.Name,
			Email:       lo.FromPtr(t.BillingEmail),
			IdempotencyKey: s.IdempotencyKeys.GenerateKey(idempotency.ScopeCustomerCreate, map[string]interface{}{
				"tenant_id": tenantID,
			}),
		})
		if err != nil {
			return nil, wrapProviderError(err, "create_customer")
		}
		customerID = customer.CustomerID
	}

	card, err := provider.SaveCardForCustomer(ctx, &base.SaveCardParams{
		CustomerID: customerID,
		CardToken:  req.PaymentToken,
		IdempotencyKey: s.IdempotencyKeys.GenerateKey(idempotency.ScopeSubscriptionCard, map[string]interface{}{
			"tenant_id": tenantID,
			"token":     req.PaymentToken,
		}),
	})
	if err != nil {
		return nil, wrapProviderError(err, "save_card")
	}

	planID := resolved.Integration.Settings.Get(types.IntegrationSettingSubscriptionPlanID, s.Config.Billing.PlanID)
	if planID == "" {
		return nil, ierr.NewError("subscription plan not configured").
			WithHint("No subscription plan is configured for the payment integration").
			Mark(ierr.ErrConfiguration)
	}

	currency := amount.Currency

	if existing != nil && existing.HasExternalSubscription() {
		if _, err := provider.UpdateSubscription(ctx, &base.UpdateSubscriptionParams{
			SubscriptionID: *existing.ExternalSubscriptionID,
			CardID:         card.CardID,
		}); err != nil {
			return nil, wrapProviderError(err, "update_subscription")
		}

		existing.ExternalCustomerID = lo.ToPtr(customerID)
		existing.ExternalCardID = lo.ToPtr(card.CardID)
		existing.MonthlyAmount = amount.Amount
		existing.Touch(ctx, s.now())
		if err := s.SubRepo.Update(ctx, existing); err != nil {
			return nil, err
		}

		s.Logger.Infow("updated subscription card",
			"tenant_id", tenantID,
			"subscription_id", existing.ID,
			"provider", provider.Name())
		return dto.NewSubscriptionResponse(existing), nil
	}

	created, err := provider.CreateSubscription(ctx, &base.CreateSubscriptionParams{
		CustomerID:  customerID,
		CardID:      card.CardID,
		PlanID:      planID,
		Quantity:    amount.LocationCount,
		Amount:      amount.Amount,
		Currency:    currency,
		ReferenceID: tenantID,
		IdempotencyKey: s.IdempotencyKeys.GenerateKey(idempotency.ScopeSubscriptionCreate, map[string]interface{}{
			"tenant_id": tenantID,
			"timestamp": s.now().UTC().Unix(),
		}),
	})
	if err != nil {
		return nil, wrapProviderError(err, "create_subscription")
	}

	// a subscription row without a processor handle is replaced in place
	sub := existing
	if sub == nil {
		sub = &subscription.Subscription{
			ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
			BillingDay: s.Config.Billing.BillingDay,
			BaseModel:  types.GetDefaultBaseModel(ctx),
		}
	}
	sub.Provider = provider.Name()
	sub.ExternalCustomerID = lo.ToPtr(customerID)
	sub.ExternalCardID = lo.ToPtr(card.CardID)
	sub.ExternalSubscriptionID = lo.ToPtr(created.SubscriptionID)
	sub.SubscriptionStatus = types.SubscriptionStatusActive
	sub.MonthlyAmount = amount.Amount
	sub.Currency = currency
	sub.AutopayEnabled = true

	if existing == nil {
		err = s.SubRepo.Create(ctx, sub)
	} else {
		sub.Touch(ctx, s.now())
		err = s.SubRepo.Update(ctx, sub)
	}
	if err != nil {
		// the processor subscription exists but is not recorded locally
		s.Logger.ReconciliationInconsistency("subscription_not_recorded",
			"tenant_id", tenantID,
			"external_subscription_id", created.SubscriptionID,
			"error", err)
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"tenant_id", tenantID,
		"subscription_id", sub.ID,
		"external_subscription_id", created.SubscriptionID,
		"monthly_amount", amount.Amount.String(),
		"location_count", amount.LocationCount)

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *billingService) EnableAutopay(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	resp, err := s.CreateOrUpdateSubscription(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.AutopayEnabled {
		return resp, nil
	}
	return s.setAutopay(ctx, resp.Subscription, true)
}

func (s *billingService) DisableAutopay(ctx context.Context) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetByTenant(ctx)
	if err != nil {
		return nil, err
	}
	if !sub.AutopayEnabled {
		return dto.NewSubscriptionResponse(sub), nil
	}
	return s.setAutopay(ctx, sub, false)
}

func (s *billingService) setAutopay(ctx context.Context, sub *subscription.Subscription, enabled bool) (*dto.SubscriptionResponse, error) {
	sub.AutopayEnabled = enabled
	sub.Touch(ctx, s.now())
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("updated autopay",
		"tenant_id", sub.TenantID,
		"subscription_id", sub.ID,
		"autopay_enabled", enabled)
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *billingService) ToggleLocationBilling(ctx context.Context, locationID string, req *dto.ToggleLocationBillingRequest) (*dto.ToggleLocationBillingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	isFree := *req.IsFree

	loc, err := s.LocationRepo.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if !isFree {
		first, err := s.LocationRepo.GetFirst(ctx)
		if err != nil {
			return nil, err
		}
		if first.ID == loc.ID {
			return nil, ierr.NewError("first location is always free").
				WithHint("The first location of an account cannot be billed").
				WithReportableDetails(map[string]any{
					"location_id": locationID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	if loc.IsFree != isFree {
		if err := s.LocationRepo.UpdateIsFree(ctx, locationID, isFree); err != nil {
			return nil, err
		}
	}

	amount, err := s.CalculateMonthlyAmount(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.GetByTenant(ctx)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if sub != nil {
		if !sub.MonthlyAmount.Equal(amount.Amount) {
			if err := s.SubRepo.UpdateMonthlyAmount(ctx, sub.ID, amount.Amount); err != nil {
				return nil, err
			}
		}
		if sub.HasExternalSubscription() {
			// processor subscriptions keep their price until the card is re-entered
			s.Logger.ReconciliationInconsistency("external_amount_stale",
				"tenant_id", sub.TenantID,
				"subscription_id", sub.ID,
				"external_subscription_id", *sub.ExternalSubscriptionID,
				"monthly_amount", amount.Amount.String())
		}
	}

	return &dto.ToggleLocationBillingResponse{
		LocationID:    locationID,
		IsFree:        isFree,
		MonthlyAmount: amount,
	}, nil
}

func (s *billingService) GetBillingHistory(ctx context.Context, filter *types.BillingHistoryFilter) (*dto.ListSubscriptionPaymentsResponse, error) {
	if filter == nil {
		filter = types.NewBillingHistoryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	payments, err := s.SubRepo.ListPayments(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.SubRepo.CountPayments(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(payments, func(p *subscription.Payment, _ int) *dto.SubscriptionPaymentResponse {
		return dto.NewSubscriptionPaymentResponse(p)
	})
	resp := types.NewListResponse(items, total, filter.QueryFilter)
	return &resp, nil
}

func (s *billingService) HandlePaymentFailure(ctx context.Context, subscriptionID string, reason string) error {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return err
	}

	if err := s.SubRepo.UpdateStatus(ctx, sub.ID, types.SubscriptionStatusPastDue); err != nil {
		return err
	}

	s.Logger.Warnw("subscription marked past due",
		"tenant_id", sub.TenantID,
		"subscription_id", sub.ID,
		"previous_status", sub.SubscriptionStatus,
		"reason", reason)

	s.sendPastDueNotice(ctx, sub, reason)
	return nil
}

// sendPastDueNotice is best effort. A failed notice never fails billing.
func (s *billingService) sendPastDueNotice(ctx context.Context, sub *subscription.Subscription, reason string) {
	if s.Notifier == nil {
		return
	}

	t, err := s.TenantRepo.GetByID(ctx, sub.TenantID)
	if err != nil {
		s.Logger.Errorw("failed to load tenant for past due notice",
			"tenant_id", sub.TenantID,
			"error", err)
		return
	}

	err = s.Notifier.SendPastDueNotice(ctx, &email.PastDueNotice{
		TenantID:       t.ID,
		TenantName:     t.Name,
		ToAddress:      lo.FromPtr(t.BillingEmail),
		SubscriptionID: sub.ID,
		Amount:         sub.MonthlyAmount,
		Currency:       sub.Currency,
		Reason:         reason,
		FailedAt:       s.now().UTC(),
	})
	if err != nil {
		s.Logger.Errorw("failed to send past due notice",
			"tenant_id", sub.TenantID,
			"subscription_id", sub.ID,
			"error", err)
	}
}

func (s *billingService) ProcessMonthlyBilling(ctx context.Context) (*dto.BillingRunResponse, error) {
	now := s.now().UTC()
	billingDay := s.Config.Billing.BillingDay

	result := &dto.BillingRunResponse{
		RunAt:      now,
		BillingDay: billingDay,
	}

	if now.Day() != billingDay {
		s.Logger.Debugw("not the billing day, skipping monthly billing",
			"today", now.Day(),
			"billing_day", billingDay)
		result.Skipped = true
		return result, nil
	}

	subs, err := s.SubRepo.ListDueForBilling(ctx, now.Day())
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("starting monthly billing",
		"billing_day", billingDay,
		"subscriptions", len(subs))

	for _, sub := range subs {
		subCtx := types.WithSystemTenant(ctx, sub.TenantID)

		var (
			created bool
			err     error
			catcher panics.Catcher
		)
		catcher.Try(func() {
			_, created, err = s.ProcessSubscriptionBilling(subCtx, sub)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			err = recovered.AsError()
		}

		result.Processed++
		if err != nil {
			result.Failed++
			s.Logger.Errorw("subscription billing failed",
				"tenant_id", sub.TenantID,
				"subscription_id", sub.ID,
				"error", err)

			if ferr := s.HandlePaymentFailure(subCtx, sub.ID, err.Error()); ferr != nil {
				s.Logger.Errorw("failed to handle payment failure",
					"tenant_id", sub.TenantID,
					"subscription_id", sub.ID,
					"error", ferr)
			}
			continue
		}

		if created {
			result.Created++
		} else {
			result.AlreadyBilled++
		}
	}

	s.Logger.Infow("finished monthly billing",
		"processed", result.Processed,
		"created", result.Created,
		"already_billed", result.AlreadyBilled,
		"failed", result.Failed)

	return result, nil
}

func (s *billingService) ProcessSubscriptionBilling(ctx context.Context, sub *subscription.Subscription) (*subscription.Payment, bool, error) {
	return s.recordPeriodPayment(ctx, sub, types.CalendarMonthPeriod(s.now()))
}

// recordPeriodPayment returns the ledger row for period, creating it from the
// current location count when the period has none yet
func (s *billingService) recordPeriodPayment(ctx context.Context, sub *subscription.Subscription, period types.BillingPeriod) (*subscription.Payment, bool, error) {
	amount, err := s.CalculateMonthlyAmount(ctx)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.SubRepo.GetPaymentForPeriod(ctx, sub.ID, period.Start)
	if err == nil {
		s.Logger.Debugw("billing period already recorded",
			"subscription_id", sub.ID,
			"billing_period_start", period.Start)
		return existing, false, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, false, err
	}

	currency := sub.Currency
	if currency == "" {
		currency = amount.Currency
	}

	payment := &subscription.Payment{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION_PAYMENT),
		SubscriptionID:     sub.ID,
		Amount:             amount.Amount,
		Currency:           currency,
		PaymentStatus:      types.SubscriptionPaymentStatusPending,
		BillingPeriodStart: period.Start,
		BillingPeriodEnd:   period.End,
		LocationCount:      amount.LocationCount,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}

	// without autopay the processor never charges, so the row asks for a manual payment
	if !sub.AutopayEnabled || !sub.HasExternalSubscription() {
		payment.FailureReason = lo.ToPtr(types.FailureReasonAutopayDisabled)
	}

	if err := s.SubRepo.CreatePayment(ctx, payment); err != nil {
		if !ierr.IsAlreadyExists(err) {
			return nil, false, err
		}
		// lost the race to a concurrent run
		existing, err := s.SubRepo.GetPaymentForPeriod(ctx, sub.ID, period.Start)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	if !sub.MonthlyAmount.Equal(amount.Amount) {
		if err := s.SubRepo.UpdateMonthlyAmount(ctx, sub.ID, amount.Amount); err != nil {
			s.Logger.Warnw("failed to refresh cached monthly amount",
				"subscription_id", sub.ID,
				"error", err)
		}
	}

	s.Logger.Infow("recorded subscription payment",
		"tenant_id", sub.TenantID,
		"subscription_id", sub.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount.String(),
		"location_count", payment.LocationCount,
		"autopay", payment.FailureReason == nil)

	return payment, true, nil
}

func (s *billingService) ReconcileSubscriptionPayment(ctx context.Context, event *base.WebhookEvent) error {
	if event == nil || !event.IsSubscriptionEvent() || event.SubscriptionID == "" {
		return ierr.NewError("not a subscription event").
			WithHint("The webhook event does not reference a subscription").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubRepo.FindByExternalID(ctx, event.SubscriptionID)
	if err != nil {
		return err
	}
	ctx = types.WithSystemTenant(ctx, sub.TenantID)

	payment, err := s.paymentForEvent(ctx, sub, event)
	if err != nil {
		return err
	}

	switch event.Kind {
	case types.WebhookEventSubscriptionPaid:
		if payment.PaymentStatus == types.SubscriptionPaymentStatusSucceeded {
			return nil
		}
		payment.PaymentStatus = types.SubscriptionPaymentStatusSucceeded
		payment.FailureReason = nil
		if event.TransactionID != "" {
			payment.ProcessorPaymentID = lo.ToPtr(event.TransactionID)
		}
		payment.UpdatedAt = s.now().UTC()
		payment.UpdatedBy = types.SystemUserID
		if err := s.SubRepo.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		if sub.SubscriptionStatus != types.SubscriptionStatusActive {
			if err := s.SubRepo.UpdateStatus(ctx, sub.ID, types.SubscriptionStatusActive); err != nil {
				return err
			}
		}

		s.Logger.Infow("subscription payment settled",
			"tenant_id", sub.TenantID,
			"subscription_id", sub.ID,
			"payment_id", payment.ID)
		return nil

	case types.WebhookEventSubscriptionPaymentFailed:
		if payment.PaymentStatus != types.SubscriptionPaymentStatusPending {
			s.Logger.Infow("ignoring subscription failure for settled period",
				"subscription_id", sub.ID,
				"payment_id", payment.ID,
				"payment_status", payment.PaymentStatus)
			return nil
		}

		reason := event.Reason
		if reason == "" {
			reason = "Subscription charge failed"
		}
		payment.PaymentStatus = types.SubscriptionPaymentStatusFailed
		payment.FailureReason = lo.ToPtr(reason)
		payment.UpdatedAt = s.now().UTC()
		payment.UpdatedBy = types.SystemUserID
		if err := s.SubRepo.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		return s.HandlePaymentFailure(ctx, sub.ID, reason)
	}

	return nil
}

// paymentForEvent picks the ledger row a subscription event settles. The
// period the processor names wins. Without one, a charge lands on the oldest
// row still waiting for it, and only then on the current month. Late retries
// of an earlier cycle therefore never settle the month they arrive in.
func (s *billingService) paymentForEvent(ctx context.Context, sub *subscription.Subscription, event *base.WebhookEvent) (*subscription.Payment, error) {
	if event.PeriodStart != nil {
		payment, _, err := s.recordPeriodPayment(ctx, sub, types.CalendarMonthPeriod(*event.PeriodStart))
		return payment, err
	}

	waiting := []types.SubscriptionPaymentStatus{types.SubscriptionPaymentStatusPending}
	if event.Kind == types.WebhookEventSubscriptionPaid {
		waiting = append(waiting, types.SubscriptionPaymentStatusFailed)
	}
	payment, err := s.SubRepo.GetOldestPaymentWithStatus(ctx, sub.ID, waiting...)
	if err == nil {
		return payment, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	payment, _, err = s.ProcessSubscriptionBilling(ctx, sub)
	return payment, err
}

// wrapProviderError keeps configuration problems as they are and classifies
// everything else the processor returns as a payment failure
func wrapProviderError(err error, operation string) error {
	if ierr.IsConfiguration(err) || ierr.IsPaymentProcessing(err) {
		return err
	}
	return ierr.WithError(err).
		WithHint("The payment processor could not complete the request").
		WithReportableDetails(map[string]any{
			"operation": operation,
		}).
		Mark(ierr.ErrPaymentProcessing)
}
