package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/domain/location"
	"github.com/shopbench/shopbench/internal/domain/subscription"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/testutil"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  *billingService
	testData struct {
		locations struct {
			first  *location.Location
			second *location.Location
			third  *location.Location
		}
		billingDay time.Time
	}
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewBillingService(newTestServiceParams(&s.BaseServiceTestSuite)).(*billingService)
	s.setupTestData()
}

func (s *BillingServiceSuite) setupTestData() {
	ctx := s.GetContext()
	s.CreateTenant("Fixit Phones")

	s.testData.locations.first = s.CreateLocation(ctx, "Main Street", true)
	s.testData.locations.second = s.CreateLocation(ctx, "Harbor", false)
	s.testData.locations.third = s.CreateLocation(ctx, "Airport", false)

	s.testData.billingDay = time.Date(2026, time.March, 1, 6, 0, 0, 0, time.UTC)
	s.setNow(s.testData.billingDay)
}

func (s *BillingServiceSuite) setNow(t time.Time) {
	s.service.now = func() time.Time { return t }
}

func (s *BillingServiceSuite) configurePlan() {
	s.ConfigurePaymentIntegration(s.GetContext(), map[string]string{
		types.IntegrationSettingSubscriptionPlanID: "plan_monthly",
	})
}

func (s *BillingServiceSuite) TestCalculateMonthlyAmount() {
	resp, err := s.service.CalculateMonthlyAmount(s.GetContext())
	s.NoError(err)
	s.True(decimal.NewFromInt(100).Equal(resp.Amount), "expected 100, got %s", resp.Amount)
	s.Equal(2, resp.LocationCount)
	s.Equal(1, resp.FreeLocationCount)
	s.True(decimal.NewFromInt(50).Equal(resp.UnitPrice))
	s.Equal("USD", resp.Currency)
}

func (s *BillingServiceSuite) TestCalculateMonthlyAmountIgnoresOtherTenants() {
	other := types.SetTenantID(s.GetContext(), "tenant_other")
	s.CreateLocation(other, "Elsewhere", false)
	s.CreateLocation(other, "Elsewhere 2", false)

	resp, err := s.service.CalculateMonthlyAmount(s.GetContext())
	s.NoError(err)
	s.Equal(2, resp.LocationCount)

	resp, err = s.service.CalculateMonthlyAmount(other)
	s.NoError(err)
	s.Equal(2, resp.LocationCount)
	s.Equal(0, resp.FreeLocationCount)
}

func (s *BillingServiceSuite) TestToggleLocationBilling() {
	tests := []struct {
		name           string
		locationID     func() string
		isFree         bool
		expectedAmount int64
		wantErr        bool
		errCheck       func(error) bool
	}{
		{
			name:           "making a billable location free lowers the amount by the unit price",
			locationID:     func() string { return s.testData.locations.second.ID },
			isFree:         true,
			expectedAmount: 50,
		},
		{
			name:           "toggling to the current value keeps the amount",
			locationID:     func() string { return s.testData.locations.third.ID },
			isFree:         false,
			expectedAmount: 100,
		},
		{
			name:       "first location cannot be billed",
			locationID: func() string { return s.testData.locations.first.ID },
			isFree:     false,
			wantErr:    true,
			errCheck:   ierr.IsInvalidOperation,
		},
		{
			name:       "unknown location",
			locationID: func() string { return "loc_missing" },
			isFree:     true,
			wantErr:    true,
			errCheck:   ierr.IsNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.ToggleLocationBilling(s.GetContext(), tt.locationID(), &dto.ToggleLocationBillingRequest{
				IsFree: lo.ToPtr(tt.isFree),
			})
			if tt.wantErr {
				s.Error(err)
				s.True(tt.errCheck(err), "unexpected error: %v", err)
				return
			}
			s.NoError(err)
			s.Equal(tt.isFree, resp.IsFree)
			s.True(decimal.NewFromInt(tt.expectedAmount).Equal(resp.MonthlyAmount.Amount),
				"expected %d, got %s", tt.expectedAmount, resp.MonthlyAmount.Amount)

			// restore
			_, err = s.service.ToggleLocationBilling(s.GetContext(), tt.locationID(), &dto.ToggleLocationBillingRequest{
				IsFree: lo.ToPtr(false),
			})
			s.NoError(err)
		})
	}
}

func (s *BillingServiceSuite) TestToggleLocationBillingAfterFirstLocationDeleted() {
	ctx := s.GetContext()
	harbor := s.testData.locations.second.ID

	_, err := s.service.ToggleLocationBilling(ctx, harbor, &dto.ToggleLocationBillingRequest{IsFree: lo.ToPtr(true)})
	s.NoError(err)

	s.NoError(s.GetStores().LocationRepo.Mutate(ctx, s.testData.locations.first.ID, func(l *location.Location) (*location.Location, error) {
		deleted := *l
		deleted.Status = types.StatusDeleted
		return &deleted, nil
	}))

	// the deleted location keeps the free slot, so the next one stays billable
	resp, err := s.service.ToggleLocationBilling(ctx, harbor, &dto.ToggleLocationBillingRequest{IsFree: lo.ToPtr(false)})
	s.NoError(err)
	s.False(resp.IsFree)
	s.True(decimal.NewFromInt(100).Equal(resp.MonthlyAmount.Amount), "got %s", resp.MonthlyAmount.Amount)
}

func (s *BillingServiceSuite) TestToggleLocationBillingRefreshesCachedAmount() {
	ctx := s.GetContext()
	core, logs := observer.New(zapcore.InfoLevel)
	s.service.Logger = &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	sub := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.MonthlyAmount = decimal.NewFromInt(100)
		sub.ExternalSubscriptionID = lo.ToPtr("sub_ext")
	})

	_, err := s.service.ToggleLocationBilling(ctx, s.testData.locations.third.ID, &dto.ToggleLocationBillingRequest{
		IsFree: lo.ToPtr(true),
	})
	s.NoError(err)

	stored, err := s.GetStores().SubRepo.Get(ctx, sub.ID)
	s.NoError(err)
	s.True(decimal.NewFromInt(50).Equal(stored.MonthlyAmount))

	// the processor subscription is never repriced from here
	s.Empty(s.GetPaymentProvider().UpdatedSubscriptions)

	stale := logs.FilterMessage("reconciliation inconsistency: external_amount_stale").All()
	s.Require().Len(stale, 1)
	s.Equal(zapcore.ErrorLevel, stale[0].Level)
	s.Equal("sub_ext", stale[0].ContextMap()["external_subscription_id"])
}

func (s *BillingServiceSuite) TestCreateSubscription() {
	ctx := s.GetContext()
	s.configurePlan()

	resp, err := s.service.CreateOrUpdateSubscription(ctx, &dto.CreateSubscriptionRequest{PaymentToken: "cnon:card-nonce-ok"})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	s.True(resp.AutopayEnabled)
	s.Equal("cust_1", lo.FromPtr(resp.ExternalCustomerID))
	s.Equal("card_1", lo.FromPtr(resp.ExternalCardID))
	s.Equal("sub_1", lo.FromPtr(resp.ExternalSubscriptionID))
	s.True(decimal.NewFromInt(100).Equal(resp.MonthlyAmount))
	s.Equal(types.PaymentProviderSquare, resp.Provider)

	provider := s.GetPaymentProvider()
	s.Require().Len(provider.CreatedCustomers, 1)
	s.Equal("Fixit Phones", provider.CreatedCustomers[0].Name)
	s.Equal("billing@example.com", provider.CreatedCustomers[0].Email)
	s.NotEmpty(provider.CreatedCustomers[0].IdempotencyKey)

	s.Require().Len(provider.SavedCards, 1)
	s.Equal("cust_1", provider.SavedCards[0].CustomerID)
	s.Equal("cnon:card-nonce-ok", provider.SavedCards[0].CardToken)

	s.Require().Len(provider.CreatedSubscriptions, 1)
	created := provider.CreatedSubscriptions[0]
	s.Equal("plan_monthly", created.PlanID)
	s.Equal(2, created.Quantity)
	s.True(decimal.NewFromInt(100).Equal(created.Amount))
	s.Equal("card_1", created.CardID)

	stored, err := s.GetStores().SubRepo.GetByTenant(ctx)
	s.NoError(err)
	s.Equal(resp.ID, stored.ID)
}

func (s *BillingServiceSuite) TestCreateSubscriptionUpdatesCardOnExistingSubscription() {
	ctx := s.GetContext()
	s.configurePlan()

	existing := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.ExternalCustomerID = lo.ToPtr("cust_existing")
		sub.ExternalCardID = lo.ToPtr("card_old")
		sub.ExternalSubscriptionID = lo.ToPtr("sub_existing")
		sub.AutopayEnabled = true
	})

	resp, err := s.service.CreateOrUpdateSubscription(ctx, &dto.CreateSubscriptionRequest{PaymentToken: "cnon:new-card"})
	s.NoError(err)
	s.Equal(existing.ID, resp.ID)
	s.Equal("card_1", lo.FromPtr(resp.ExternalCardID))
	s.Equal("sub_existing", lo.FromPtr(resp.ExternalSubscriptionID))

	provider := s.GetPaymentProvider()
	s.Empty(provider.CreatedCustomers)
	s.Empty(provider.CreatedSubscriptions)
	s.Require().Len(provider.SavedCards, 1)
	s.Equal("cust_existing", provider.SavedCards[0].CustomerID)
	s.Require().Len(provider.UpdatedSubscriptions, 1)
	s.Equal("sub_existing", provider.UpdatedSubscriptions[0].SubscriptionID)
	s.Equal("card_1", provider.UpdatedSubscriptions[0].CardID)
}

func (s *BillingServiceSuite) TestCreateSubscriptionErrors() {
	tests := []struct {
		name     string
		setup    func()
		errCheck func(error) bool
	}{
		{
			name:     "payment integration not configured",
			setup:    func() {},
			errCheck: ierr.IsConfiguration,
		},
		{
			name: "no plan configured",
			setup: func() {
				s.ConfigurePaymentIntegration(s.GetContext(), nil)
			},
			errCheck: ierr.IsConfiguration,
		},
		{
			name: "no billable locations",
			setup: func() {
				s.configurePlan()
				for _, l := range []*location.Location{s.testData.locations.second, s.testData.locations.third} {
					s.NoError(s.GetStores().LocationRepo.UpdateIsFree(s.GetContext(), l.ID, true))
				}
			},
			errCheck: ierr.IsConfiguration,
		},
		{
			name: "processor declines the card",
			setup: func() {
				s.configurePlan()
				s.GetPaymentProvider().CardErr = errors.New("card declined")
			},
			errCheck: ierr.IsPaymentProcessing,
		},
		{
			name: "missing payment token",
			setup: func() {
				s.configurePlan()
			},
			errCheck: ierr.IsValidation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			tt.setup()

			token := "cnon:ok"
			if tt.name == "missing payment token" {
				token = ""
			}
			_, err := s.service.CreateOrUpdateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{PaymentToken: token})
			s.Error(err)
			s.True(tt.errCheck(err), "unexpected error: %v", err)

			_, err = s.GetStores().SubRepo.GetByTenant(s.GetContext())
			s.True(ierr.IsNotFound(err), "no subscription should be stored")
		})
	}
}

func (s *BillingServiceSuite) TestEnableAutopay() {
	ctx := s.GetContext()
	s.configurePlan()

	existing := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.ExternalCustomerID = lo.ToPtr("cust_existing")
		sub.ExternalSubscriptionID = lo.ToPtr("sub_existing")
		sub.AutopayEnabled = false
	})

	resp, err := s.service.EnableAutopay(ctx, &dto.CreateSubscriptionRequest{PaymentToken: "cnon:card-nonce-ok"})
	s.NoError(err)
	s.Equal(existing.ID, resp.ID)
	s.True(resp.AutopayEnabled)

	stored, err := s.GetStores().SubRepo.Get(ctx, existing.ID)
	s.NoError(err)
	s.True(stored.AutopayEnabled)
	s.Len(s.GetPaymentProvider().UpdatedSubscriptions, 1)
}

func (s *BillingServiceSuite) TestDisableAutopay() {
	ctx := s.GetContext()
	sub := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.AutopayEnabled = true
		sub.ExternalSubscriptionID = lo.ToPtr("sub_ext")
	})

	resp, err := s.service.DisableAutopay(ctx)
	s.NoError(err)
	s.False(resp.AutopayEnabled)

	stored, err := s.GetStores().SubRepo.Get(ctx, sub.ID)
	s.NoError(err)
	s.False(stored.AutopayEnabled)
	s.Equal(types.SubscriptionStatusActive, stored.SubscriptionStatus)
	s.Empty(s.GetPaymentProvider().UpdatedSubscriptions)
}

func (s *BillingServiceSuite) TestGetSubscriptionIsTenantScoped() {
	other := types.SetTenantID(s.GetContext(), "tenant_other")
	s.CreateSubscription(other, nil)

	_, err := s.service.GetSubscription(s.GetContext())
	s.True(ierr.IsNotFound(err))

	resp, err := s.service.GetSubscription(other)
	s.NoError(err)
	s.Equal("tenant_other", resp.TenantID)
}

func (s *BillingServiceSuite) TestProcessMonthlyBillingSkipsOtherDays() {
	s.CreateSubscription(s.GetContext(), nil)
	s.setNow(s.testData.billingDay.AddDate(0, 0, 1))

	resp, err := s.service.ProcessMonthlyBilling(s.GetContext())
	s.NoError(err)
	s.True(resp.Skipped)
	s.Equal(0, resp.Processed)
	s.Equal(0, s.GetStores().SubRepo.PaymentCount())
}

func (s *BillingServiceSuite) TestProcessMonthlyBillingIsIdempotent() {
	ctx := s.GetContext()
	autopay := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.AutopayEnabled = true
		sub.ExternalSubscriptionID = lo.ToPtr("sub_ext")
	})

	other := types.SetTenantID(ctx, "tenant_other")
	s.CreateLocation(other, "Other Main", true)
	s.CreateLocation(other, "Other Second", false)
	manual := s.CreateSubscription(other, nil)

	first, err := s.service.ProcessMonthlyBilling(ctx)
	s.NoError(err)
	s.False(first.Skipped)
	s.Equal(2, first.Processed)
	s.Equal(2, first.Created)
	s.Equal(0, first.Failed)

	second, err := s.service.ProcessMonthlyBilling(ctx)
	s.NoError(err)
	s.Equal(2, second.Processed)
	s.Equal(0, second.Created)
	s.Equal(2, second.AlreadyBilled)

	s.Equal(2, s.GetStores().SubRepo.PaymentCount())

	period := types.CalendarMonthPeriod(s.testData.billingDay)

	autopayPayment, err := s.GetStores().SubRepo.GetPaymentForPeriod(ctx, autopay.ID, period.Start)
	s.NoError(err)
	s.Equal(types.SubscriptionPaymentStatusPending, autopayPayment.PaymentStatus)
	s.Nil(autopayPayment.FailureReason)
	s.True(decimal.NewFromInt(100).Equal(autopayPayment.Amount))
	s.Equal(2, autopayPayment.LocationCount)
	s.Equal(period.End, autopayPayment.BillingPeriodEnd)

	manualPayment, err := s.GetStores().SubRepo.GetPaymentForPeriod(other, manual.ID, period.Start)
	s.NoError(err)
	s.Equal(types.FailureReasonAutopayDisabled, lo.FromPtr(manualPayment.FailureReason))
	s.True(decimal.NewFromInt(50).Equal(manualPayment.Amount))
	s.Equal("tenant_other", manualPayment.TenantID)
}

func (s *BillingServiceSuite) TestProcessMonthlyBillingNextMonthCreatesNewRow() {
	sub := s.CreateSubscription(s.GetContext(), nil)

	_, created, err := s.service.ProcessSubscriptionBilling(s.GetContext(), sub)
	s.NoError(err)
	s.True(created)

	s.setNow(s.testData.billingDay.AddDate(0, 0, 20))
	_, created, err = s.service.ProcessSubscriptionBilling(s.GetContext(), sub)
	s.NoError(err)
	s.False(created)

	s.setNow(s.testData.billingDay.AddDate(0, 1, 0))
	_, created, err = s.service.ProcessSubscriptionBilling(s.GetContext(), sub)
	s.NoError(err)
	s.True(created)

	s.Equal(2, s.GetStores().SubRepo.PaymentCount())
}

func (s *BillingServiceSuite) TestProcessMonthlyBillingContinuesPastFailedSubscription() {
	ctx := s.GetContext()
	failing := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.AutopayEnabled = true
		sub.ExternalSubscriptionID = lo.ToPtr("sub_ext")
	})
	s.GetStores().SubRepo.FailCreatePayment(failing.ID, errors.New("connection reset by peer"))

	other := types.SetTenantID(ctx, "tenant_other")
	s.CreateLocation(other, "Other Main", true)
	s.CreateLocation(other, "Other Second", false)
	healthy := s.CreateSubscription(other, nil)

	resp, err := s.service.ProcessMonthlyBilling(ctx)
	s.NoError(err)
	s.Equal(2, resp.Processed)
	s.Equal(1, resp.Created)
	s.Equal(1, resp.Failed)

	period := types.CalendarMonthPeriod(s.testData.billingDay)
	payment, err := s.GetStores().SubRepo.GetPaymentForPeriod(other, healthy.ID, period.Start)
	s.NoError(err)
	s.Equal(types.SubscriptionPaymentStatusPending, payment.PaymentStatus)

	_, err = s.GetStores().SubRepo.GetPaymentForPeriod(ctx, failing.ID, period.Start)
	s.True(ierr.IsNotFound(err))

	stored, err := s.GetStores().SubRepo.Get(ctx, failing.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, stored.SubscriptionStatus)

	untouched, err := s.GetStores().SubRepo.Get(other, healthy.ID)
	s.NoError(err)
	s.Equal(healthy.SubscriptionStatus, untouched.SubscriptionStatus)

	messages := s.GetEmailSender().Messages()
	s.Require().Len(messages, 1)
	s.Contains(messages[0].Text, "connection reset by peer")
}

func (s *BillingServiceSuite) TestHandlePaymentFailure() {
	ctx := s.GetContext()
	sub := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.MonthlyAmount = decimal.NewFromInt(100)
	})

	err := s.service.HandlePaymentFailure(ctx, sub.ID, "Card expired")
	s.NoError(err)

	stored, err := s.GetStores().SubRepo.Get(ctx, sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, stored.SubscriptionStatus)

	messages := s.GetEmailSender().Messages()
	s.Require().Len(messages, 1)
	s.Equal("billing@example.com", messages[0].To)
	s.Contains(messages[0].Text, "Card expired")
	s.Contains(messages[0].HTML, "100.00 USD")
}

func (s *BillingServiceSuite) TestHandlePaymentFailureIgnoresEmailErrors() {
	ctx := s.GetContext()
	sub := s.CreateSubscription(ctx, nil)
	s.GetEmailSender().Err = errors.New("smtp down")

	s.NoError(s.service.HandlePaymentFailure(ctx, sub.ID, "declined"))

	stored, err := s.GetStores().SubRepo.Get(ctx, sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, stored.SubscriptionStatus)
}

func (s *BillingServiceSuite) TestReconcileSubscriptionPayment() {
	ctx := s.GetContext()
	sub := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.AutopayEnabled = true
		sub.ExternalSubscriptionID = lo.ToPtr("sub_ext")
		sub.SubscriptionStatus = types.SubscriptionStatusPastDue
	})
	period := types.CalendarMonthPeriod(s.testData.billingDay)

	paid := &base.WebhookEvent{
		Kind:           types.WebhookEventSubscriptionPaid,
		SubscriptionID: "sub_ext",
		TransactionID:  "pay_123",
		Paid:           true,
	}

	// no row yet for the period, so one is created and settled
	s.NoError(s.service.ReconcileSubscriptionPayment(context.Background(), paid))

	payment, err := s.GetStores().SubRepo.GetPaymentForPeriod(ctx, sub.ID, period.Start)
	s.NoError(err)
	s.Equal(types.SubscriptionPaymentStatusSucceeded, payment.PaymentStatus)
	s.Equal("pay_123", lo.FromPtr(payment.ProcessorPaymentID))

	stored, err := s.GetStores().SubRepo.Get(ctx, sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, stored.SubscriptionStatus)

	// replays and late failures leave the settled row alone
	s.NoError(s.service.ReconcileSubscriptionPayment(context.Background(), paid))
	s.NoError(s.service.ReconcileSubscriptionPayment(context.Background(), &base.WebhookEvent{
		Kind:           types.WebhookEventSubscriptionPaymentFailed,
		SubscriptionID: "sub_ext",
		Reason:         "declined",
	}))

	payment, err = s.GetStores().SubRepo.GetPaymentForPeriod(ctx, sub.ID, period.Start)
	s.NoError(err)
	s.Equal(types.SubscriptionPaymentStatusSucceeded, payment.PaymentStatus)
	s.Equal(1, s.GetStores().SubRepo.PaymentCount())
	s.Empty(s.GetEmailSender().Messages())
}

func (s *BillingServiceSuite) TestReconcileSubscriptionPaymentFailure() {
	ctx := s.GetContext()
	sub := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.AutopayEnabled = true
		sub.ExternalSubscriptionID = lo.ToPtr("sub_ext")
	})
	_, _, err := s.service.ProcessSubscriptionBilling(ctx, sub)
	s.NoError(err)

	err = s.service.ReconcileSubscriptionPayment(context.Background(), &base.WebhookEvent{
		Kind:           types.WebhookEventSubscriptionPaymentFailed,
		SubscriptionID: "sub_ext",
		Reason:         "Insufficient funds",
	})
	s.NoError(err)

	period := types.CalendarMonthPeriod(s.testData.billingDay)
	payment, err := s.GetStores().SubRepo.GetPaymentForPeriod(ctx, sub.ID, period.Start)
	s.NoError(err)
	s.Equal(types.SubscriptionPaymentStatusFailed, payment.PaymentStatus)
	s.Equal("Insufficient funds", lo.FromPtr(payment.FailureReason))

	stored, err := s.GetStores().SubRepo.Get(ctx, sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, stored.SubscriptionStatus)
	s.Len(s.GetEmailSender().Messages(), 1)
}

// failLateRetryMarch leaves a failed March row behind and moves the clock
// into April, where the processor's retry of the March charge lands.
func (s *BillingServiceSuite) failLateRetryMarch() *subscription.Subscription {
	ctx := s.GetContext()
	sub := s.CreateSubscription(ctx, func(sub *subscription.Subscription) {
		sub.AutopayEnabled = true
		sub.ExternalSubscriptionID = lo.ToPtr("sub_ext")
	})
	_, _, err := s.service.ProcessSubscriptionBilling(ctx, sub)
	s.Require().NoError(err)
	s.Require().NoError(s.service.ReconcileSubscriptionPayment(context.Background(), &base.WebhookEvent{
		Kind:           types.WebhookEventSubscriptionPaymentFailed,
		SubscriptionID: "sub_ext",
		Reason:         "Insufficient funds",
	}))

	s.setNow(time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC))
	return sub
}

func (s *BillingServiceSuite) TestReconcileLateRetrySettlesNamedPeriod() {
	ctx := s.GetContext()
	sub := s.failLateRetryMarch()

	// the April run already recorded its own pending row
	_, created, err := s.service.ProcessSubscriptionBilling(ctx, sub)
	s.NoError(err)
	s.True(created)

	s.NoError(s.service.ReconcileSubscriptionPayment(context.Background(), &base.WebhookEvent{
		Kind:           types.WebhookEventSubscriptionPaid,
		SubscriptionID: "sub_ext",
		TransactionID:  "in_march_retry",
		Paid:           true,
		PeriodStart:    lo.ToPtr(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}))

	march, err := s.GetStores().SubRepo.GetPaymentForPeriod(ctx, sub.ID, types.CalendarMonthPeriod(s.testData.billingDay).Start)
	s.NoError(err)
	s.Equal(types.SubscriptionPaymentStatusSucceeded, march.PaymentStatus)
	s.Equal("in_march_retry", lo.FromPtr(march.ProcessorPaymentID))
	s.Nil(march.FailureReason)

	april, err := s.GetStores().SubRepo.GetPaymentForPeriod(ctx, sub.ID, types.CalendarMonthPeriod(s.service.now()).Start)
	s.NoError(err)
	s.Equal(types.SubscriptionPaymentStatusPending, april.PaymentStatus)
	s.Nil(april.ProcessorPaymentID)

	s.Equal(2, s.GetStores().SubRepo.PaymentCount())
}

func (s *BillingServiceSuite) TestReconcileLateRetryWithoutPeriodSettlesOldestUnpaid() {
	ctx := s.GetContext()
	sub := s.failLateRetryMarch()

	s.NoError(s.service.ReconcileSubscriptionPayment(context.Background(), &base.WebhookEvent{
		Kind:           types.WebhookEventSubscriptionPaid,
		SubscriptionID: "sub_ext",
		TransactionID:  "in_march_retry",
		Paid:           true,
	}))

	march, err := s.GetStores().SubRepo.GetPaymentForPeriod(ctx, sub.ID, types.CalendarMonthPeriod(s.testData.billingDay).Start)
	s.NoError(err)
	s.Equal(types.SubscriptionPaymentStatusSucceeded, march.PaymentStatus)
	s.Equal("in_march_retry", lo.FromPtr(march.ProcessorPaymentID))

	_, err = s.GetStores().SubRepo.GetPaymentForPeriod(ctx, sub.ID, types.CalendarMonthPeriod(s.service.now()).Start)
	s.True(ierr.IsNotFound(err), "no April row is invented for a March charge")
	s.Equal(1, s.GetStores().SubRepo.PaymentCount())

	stored, err := s.GetStores().SubRepo.Get(ctx, sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, stored.SubscriptionStatus)
}

func (s *BillingServiceSuite) TestReconcileSubscriptionPaymentUnknownSubscription() {
	err := s.service.ReconcileSubscriptionPayment(context.Background(), &base.WebhookEvent{
		Kind:           types.WebhookEventSubscriptionPaid,
		SubscriptionID: "sub_unknown",
		Paid:           true,
	})
	s.True(ierr.IsNotFound(err))

	err = s.service.ReconcileSubscriptionPayment(context.Background(), &base.WebhookEvent{
		Kind: types.WebhookEventPaymentCompleted,
	})
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceSuite) TestGetBillingHistory() {
	ctx := s.GetContext()
	sub := s.CreateSubscription(ctx, nil)

	for i := 0; i < 3; i++ {
		s.setNow(s.testData.billingDay.AddDate(0, i, 0))
		_, created, err := s.service.ProcessSubscriptionBilling(ctx, sub)
		s.NoError(err)
		s.True(created)
	}

	filter := types.NewBillingHistoryFilter()
	filter.Limit = lo.ToPtr(2)
	resp, err := s.service.GetBillingHistory(ctx, filter)
	s.NoError(err)
	s.Equal(3, resp.Pagination.Total)
	s.Require().Len(resp.Items, 2)
	s.True(resp.Items[0].BillingPeriodStart.After(resp.Items[1].BillingPeriodStart))

	other, err := s.service.GetBillingHistory(types.SetTenantID(ctx, "tenant_other"), nil)
	s.NoError(err)
	s.Equal(0, other.Pagination.Total)
}
