package service

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/domain/invoice"
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

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *paymentService
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := newTestServiceParams(&s.BaseServiceTestSuite)
	cfg := *s.GetConfig()
	cfg.Payment.TerminalPollTimeout = 200 * time.Millisecond
	params.Config = &cfg

	s.service = NewPaymentService(params).(*paymentService)
	s.service.pollInterval = time.Millisecond
}

func (s *PaymentServiceSuite) configure() {
	s.ConfigurePaymentIntegration(s.GetContext(), map[string]string{
		types.IntegrationSettingCurrency: "cad",
		types.IntegrationSettingDeviceID: "device_front_desk",
	})
}

func (s *PaymentServiceSuite) paidInvoice(total int64) *invoice.Invoice {
	return s.CreateInvoice(s.GetContext(), decimal.NewFromInt(total), func(inv *invoice.Invoice) {
		inv.InvoiceStatus = types.InvoiceStatusPaid
		inv.PaymentReference = lo.ToPtr("pay_original")
		inv.PaymentMethod = lo.ToPtr("square")
	})
}

func (s *PaymentServiceSuite) TestIsPaymentConfigured() {
	configured, err := s.service.IsPaymentConfigured(s.GetContext())
	s.NoError(err)
	s.False(configured)

	cfg, err := s.service.GetPaymentConfig(s.GetContext())
	s.NoError(err)
	s.False(cfg.Configured)
	s.Equal("USD", cfg.Currency)
	s.Equal("USD", s.service.GetCurrency(s.GetContext()))

	s.configure()

	configured, err = s.service.IsPaymentConfigured(s.GetContext())
	s.NoError(err)
	s.True(configured)

	cfg, err = s.service.GetPaymentConfig(s.GetContext())
	s.NoError(err)
	s.True(cfg.Configured)
	s.Equal("square", cfg.Provider)
	s.Equal("CAD", cfg.Currency)
	s.Equal("CAD", s.service.GetCurrency(s.GetContext()))
}

func (s *PaymentServiceSuite) TestProcessPayment() {
	s.configure()

	resp, err := s.service.ProcessPayment(s.GetContext(), &dto.ProcessPaymentRequest{
		Amount:   decimal.RequireFromString("42.50"),
		SourceID: "cnon:card-nonce-ok",
	})
	s.NoError(err)
	s.Equal("pay_1", resp.TransactionID)
	s.Equal(types.PaymentStatusCompleted, resp.Status)

	charges := s.GetPaymentProvider().Charges
	s.Require().Len(charges, 1)
	s.Equal("CAD", charges[0].Currency)
	s.NotEmpty(charges[0].IdempotencyKey)
	s.True(decimal.RequireFromString("42.50").Equal(charges[0].Amount))
}

func (s *PaymentServiceSuite) TestProcessPaymentErrors() {
	tests := []struct {
		name     string
		setup    func()
		req      *dto.ProcessPaymentRequest
		errCheck func(error) bool
	}{
		{
			name:     "not configured",
			setup:    func() {},
			req:      &dto.ProcessPaymentRequest{Amount: decimal.NewFromInt(10), SourceID: "cnon:ok"},
			errCheck: ierr.IsConfiguration,
		},
		{
			name:     "non positive amount",
			setup:    s.configure,
			req:      &dto.ProcessPaymentRequest{Amount: decimal.Zero, SourceID: "cnon:ok"},
			errCheck: ierr.IsValidation,
		},
		{
			name: "processor error",
			setup: func() {
				s.configure()
				s.GetPaymentProvider().ChargeErr = errors.New("gateway timeout")
			},
			req:      &dto.ProcessPaymentRequest{Amount: decimal.NewFromInt(10), SourceID: "cnon:ok"},
			errCheck: ierr.IsPaymentProcessing,
		},
		{
			name: "declined charge",
			setup: func() {
				s.configure()
				s.GetPaymentProvider().ChargeResult = &base.ChargeResult{
					TransactionID: "pay_declined",
					Status:        types.PaymentStatusFailed,
				}
			},
			req:      &dto.ProcessPaymentRequest{Amount: decimal.NewFromInt(10), SourceID: "cnon:ok"},
			errCheck: ierr.IsPaymentProcessing,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			tt.setup()
			_, err := s.service.ProcessPayment(s.GetContext(), tt.req)
			s.Error(err)
			s.True(tt.errCheck(err), "unexpected error: %v", err)
		})
	}
}

func (s *PaymentServiceSuite) TestPayInvoice() {
	s.configure()
	ctx := s.GetContext()
	inv := s.CreateInvoice(ctx, decimal.NewFromInt(250), nil)

	resp, err := s.service.PayInvoice(ctx, inv.ID, &dto.PayInvoiceRequest{SourceID: "cnon:card-nonce-ok"})
	s.NoError(err)
	s.Equal(types.PaymentStatusCompleted, resp.Payment.Status)
	s.Equal(types.InvoiceStatusPaid, resp.Invoice.InvoiceStatus)
	s.Equal("pay_1", lo.FromPtr(resp.Invoice.PaymentReference))
	s.Equal("square", lo.FromPtr(resp.Invoice.PaymentMethod))

	charges := s.GetPaymentProvider().Charges
	s.Require().Len(charges, 1)
	s.Equal(inv.ID, charges[0].ReferenceID)
	s.Equal("USD", charges[0].Currency)
	s.True(decimal.NewFromInt(250).Equal(charges[0].Amount))

	// a paid invoice is never charged twice
	_, err = s.service.PayInvoice(ctx, inv.ID, &dto.PayInvoiceRequest{SourceID: "cnon:card-nonce-ok"})
	s.True(ierr.IsInvalidOperation(err))
	s.Len(s.GetPaymentProvider().Charges, 1)
}

func (s *PaymentServiceSuite) TestPayInvoiceIdempotencyKeyIsStable() {
	s.configure()
	ctx := s.GetContext()
	inv := s.CreateInvoice(ctx, decimal.NewFromInt(80), nil)
	s.GetPaymentProvider().ChargeErr = errors.New("connection reset")

	_, err := s.service.PayInvoice(ctx, inv.ID, &dto.PayInvoiceRequest{SourceID: "cnon:retry"})
	s.True(ierr.IsPaymentProcessing(err))
	_, err = s.service.PayInvoice(ctx, inv.ID, &dto.PayInvoiceRequest{SourceID: "cnon:retry"})
	s.True(ierr.IsPaymentProcessing(err))

	charges := s.GetPaymentProvider().Charges
	s.Require().Len(charges, 2)
	s.Equal(charges[0].IdempotencyKey, charges[1].IdempotencyKey)

	stored, err := s.GetStores().InvoiceRepo.Get(ctx, inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, stored.InvoiceStatus)
}

func (s *PaymentServiceSuite) TestPayInvoicePendingChargeLeavesInvoiceOpen() {
	s.configure()
	ctx := s.GetContext()
	inv := s.CreateInvoice(ctx, decimal.NewFromInt(80), nil)
	s.GetPaymentProvider().ChargeResult = &base.ChargeResult{
		TransactionID: "pay_pending",
		Status:        types.PaymentStatusPending,
		Amount:        decimal.NewFromInt(80),
		Currency:      "USD",
	}

	resp, err := s.service.PayInvoice(ctx, inv.ID, &dto.PayInvoiceRequest{SourceID: "cnon:ok"})
	s.NoError(err)
	s.Equal(types.PaymentStatusPending, resp.Payment.Status)
	s.Equal(types.InvoiceStatusIssued, resp.Invoice.InvoiceStatus)
}

func (s *PaymentServiceSuite) TestPayInvoiceRejectsCancelled() {
	s.configure()
	ctx := s.GetContext()
	inv := s.CreateInvoice(ctx, decimal.NewFromInt(80), func(inv *invoice.Invoice) {
		inv.InvoiceStatus = types.InvoiceStatusCancelled
	})

	_, err := s.service.PayInvoice(ctx, inv.ID, &dto.PayInvoiceRequest{SourceID: "cnon:ok"})
	s.True(ierr.IsInvalidOperation(err))
	s.Empty(s.GetPaymentProvider().Charges)
}

func (s *PaymentServiceSuite) TestRefundPayment() {
	s.configure()
	ctx := s.GetContext()
	inv := s.paidInvoice(100)

	resp, err := s.service.RefundPayment(ctx, inv.ID, &dto.RefundPaymentRequest{
		Amount: lo.ToPtr(decimal.NewFromInt(40)),
		Reason: "returned part",
	})
	s.NoError(err)
	s.Equal("refund_1", resp.RefundID)
	s.True(resp.Recorded)
	s.True(decimal.NewFromInt(40).Equal(resp.Amount))

	refunds := s.GetPaymentProvider().Refunds
	s.Require().Len(refunds, 1)
	s.Equal("pay_original", refunds[0].TransactionID)

	// the remainder is refunded when no amount is given
	resp, err = s.service.RefundPayment(ctx, inv.ID, &dto.RefundPaymentRequest{})
	s.NoError(err)
	s.True(decimal.NewFromInt(60).Equal(resp.Amount))

	stored, err := s.GetStores().InvoiceRepo.Get(ctx, inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, stored.InvoiceStatus)
	s.True(decimal.NewFromInt(100).Equal(stored.RefundedAmount))
	s.Equal("refund_2", lo.FromPtr(stored.LastRefundID))

	refunds = s.GetPaymentProvider().Refunds
	s.Require().Len(refunds, 2)
	s.NotEqual(refunds[0].IdempotencyKey, refunds[1].IdempotencyKey)

	_, err = s.service.RefundPayment(ctx, inv.ID, &dto.RefundPaymentRequest{})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentServiceSuite) TestRefundPaymentErrors() {
	tests := []struct {
		name     string
		setup    func() string
		req      *dto.RefundPaymentRequest
		errCheck func(error) bool
	}{
		{
			name: "unpaid invoice",
			setup: func() string {
				return s.CreateInvoice(s.GetContext(), decimal.NewFromInt(50), nil).ID
			},
			req:      &dto.RefundPaymentRequest{},
			errCheck: ierr.IsInvalidOperation,
		},
		{
			name: "amount above refundable",
			setup: func() string {
				return s.paidInvoice(50).ID
			},
			req:      &dto.RefundPaymentRequest{Amount: lo.ToPtr(decimal.NewFromInt(51))},
			errCheck: ierr.IsValidation,
		},
		{
			name: "processor rejects refund",
			setup: func() string {
				s.GetPaymentProvider().RefundResult = &base.RefundResult{RefundID: "refund_x", Status: types.RefundStatusFailed}
				return s.paidInvoice(50).ID
			},
			req:      &dto.RefundPaymentRequest{},
			errCheck: ierr.IsPaymentProcessing,
		},
		{
			name: "processor error",
			setup: func() string {
				s.GetPaymentProvider().RefundErr = errors.New("boom")
				return s.paidInvoice(50).ID
			},
			req:      &dto.RefundPaymentRequest{},
			errCheck: ierr.IsPaymentProcessing,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.configure()
			invoiceID := tt.setup()

			_, err := s.service.RefundPayment(s.GetContext(), invoiceID, tt.req)
			s.Error(err)
			s.True(tt.errCheck(err), "unexpected error: %v", err)

			stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), invoiceID)
			s.NoError(err)
			s.True(stored.RefundedAmount.IsZero())
		})
	}
}

func (s *PaymentServiceSuite) TestRefundPaymentPendingIsRecorded() {
	s.configure()
	ctx := s.GetContext()
	inv := s.paidInvoice(100)
	s.GetPaymentProvider().RefundResult = &base.RefundResult{
		RefundID: "refund_pending",
		Status:   types.RefundStatusPending,
		Amount:   decimal.NewFromInt(100),
		Currency: "USD",
	}

	resp, err := s.service.RefundPayment(ctx, inv.ID, &dto.RefundPaymentRequest{})
	s.NoError(err)
	s.True(resp.Recorded)

	stored, err := s.GetStores().InvoiceRepo.Get(ctx, inv.ID)
	s.NoError(err)
	s.Equal("refund_pending", lo.FromPtr(stored.LastRefundID))
}

func (s *PaymentServiceSuite) TestRefundPaymentStandsWhenInvoiceNotUpdated() {
	s.configure()
	ctx := s.GetContext()
	inv := s.paidInvoice(100)
	core, logs := observer.New(zapcore.InfoLevel)
	s.service.Logger = &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	s.GetStores().InvoiceRepo.RecordRefundErr = ierr.NewError("connection reset").
		WithHint("Database unavailable").
		Mark(ierr.ErrDatabase)

	resp, err := s.service.RefundPayment(ctx, inv.ID, &dto.RefundPaymentRequest{
		Amount: lo.ToPtr(decimal.NewFromInt(30)),
	})
	s.NoError(err)
	s.Require().NotNil(resp)
	s.False(resp.Recorded)
	s.Equal("refund_1", resp.RefundID)
	s.True(decimal.NewFromInt(30).Equal(resp.Amount))
	s.Len(s.GetPaymentProvider().Refunds, 1)

	stored, err := s.GetStores().InvoiceRepo.Get(ctx, inv.ID)
	s.NoError(err)
	s.True(stored.RefundedAmount.IsZero())
	s.Nil(stored.LastRefundID)

	entries := logs.FilterMessage("reconciliation inconsistency: refund_not_recorded").All()
	s.Require().Len(entries, 1)
	s.Equal("refund_1", entries[0].ContextMap()["refund_id"])
}

func (s *PaymentServiceSuite) TestCreateTerminalCheckoutUsesDefaultDevice() {
	s.configure()
	ctx := s.GetContext()
	inv := s.CreateInvoice(ctx, decimal.NewFromInt(75), nil)

	resp, err := s.service.CreateTerminalCheckout(ctx, &dto.CreateTerminalCheckoutRequest{
		Amount:    decimal.NewFromInt(75),
		InvoiceID: inv.ID,
	})
	s.NoError(err)
	s.Equal("checkout_1", resp.CheckoutID)
	s.Equal(types.TerminalCheckoutStatusPending, resp.Status)

	checkouts := s.GetPaymentProvider().TerminalCheckouts
	s.Require().Len(checkouts, 1)
	s.Equal("device_front_desk", checkouts[0].DeviceID)
	s.Equal(inv.ID, checkouts[0].ReferenceID)
	s.Equal("CAD", checkouts[0].Currency)
}

func (s *PaymentServiceSuite) TestWaitForTerminalCheckout() {
	s.configure()
	provider := s.GetPaymentProvider()
	provider.CheckoutStatuses = []*base.TerminalCheckoutResult{
		{CheckoutID: "checkout_9", Status: types.TerminalCheckoutStatusPending},
		{CheckoutID: "checkout_9", Status: types.TerminalCheckoutStatusInProgress},
		{CheckoutID: "checkout_9", Status: types.TerminalCheckoutStatusCompleted, PaymentIDs: []string{"pay_9"}},
	}

	resp, err := s.service.WaitForTerminalCheckout(s.GetContext(), "checkout_9")
	s.NoError(err)
	s.Equal(types.TerminalCheckoutStatusCompleted, resp.Status)
	s.Equal([]string{"pay_9"}, resp.PaymentIDs)
	s.Len(provider.CheckoutStatusQueries, 3)
}

func (s *PaymentServiceSuite) TestWaitForTerminalCheckoutTimesOut() {
	s.configure()

	resp, err := s.service.WaitForTerminalCheckout(s.GetContext(), "checkout_slow")
	s.NoError(err)
	s.Equal(types.TerminalCheckoutStatusPending, resp.Status)
	s.GreaterOrEqual(len(s.GetPaymentProvider().CheckoutStatusQueries), 2)
}

func (s *PaymentServiceSuite) TestWaitForTerminalCheckoutNotFound() {
	s.configure()
	s.GetPaymentProvider().CheckoutStatusErr = ierr.NewError("checkout not found").Mark(ierr.ErrNotFound)

	_, err := s.service.WaitForTerminalCheckout(s.GetContext(), "checkout_missing")
	s.True(ierr.IsNotFound(err))
	s.Len(s.GetPaymentProvider().CheckoutStatusQueries, 1)
}
