package service

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/domain/invoice"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/testutil"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service InvoiceService
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewInvoiceService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *InvoiceServiceSuite) TestMarkInvoiceAsPaidIsReplayable() {
	ctx := s.GetContext()
	inv := s.CreateInvoice(ctx, decimal.NewFromInt(120), nil)
	firstPaidAt := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

	resp, err := s.service.MarkInvoiceAsPaid(ctx, inv.ID, &dto.MarkInvoicePaidRequest{
		PaymentMethod:    "square",
		PaymentReference: "pay_1",
		PaidAt:           &firstPaidAt,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.Equal("pay_1", lo.FromPtr(resp.PaymentReference))

	resp, err = s.service.MarkInvoiceAsPaid(ctx, inv.ID, &dto.MarkInvoicePaidRequest{
		PaymentMethod:    "square",
		PaymentReference: "pay_1",
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.True(firstPaidAt.Equal(lo.FromPtr(resp.PaidAt)))
}

func (s *InvoiceServiceSuite) TestMarkInvoiceAsPaidErrors() {
	ctx := s.GetContext()
	cancelled := s.CreateInvoice(ctx, decimal.NewFromInt(10), func(inv *invoice.Invoice) {
		inv.InvoiceStatus = types.InvoiceStatusCancelled
	})
	other := s.CreateInvoice(types.SetTenantID(ctx, "tenant_other"), decimal.NewFromInt(10), nil)

	tests := []struct {
		name      string
		invoiceID string
		req       *dto.MarkInvoicePaidRequest
		errCheck  func(error) bool
	}{
		{
			name:      "cancelled invoice",
			invoiceID: cancelled.ID,
			req:       &dto.MarkInvoicePaidRequest{PaymentMethod: "cash", PaymentReference: "r1"},
			errCheck:  ierr.IsInvalidOperation,
		},
		{
			name:      "invoice of another tenant",
			invoiceID: other.ID,
			req:       &dto.MarkInvoicePaidRequest{PaymentMethod: "cash", PaymentReference: "r1"},
			errCheck:  ierr.IsNotFound,
		},
		{
			name:      "missing reference",
			invoiceID: cancelled.ID,
			req:       &dto.MarkInvoicePaidRequest{PaymentMethod: "cash"},
			errCheck:  ierr.IsValidation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.MarkInvoiceAsPaid(ctx, tt.invoiceID, tt.req)
			s.Error(err)
			s.True(tt.errCheck(err), "unexpected error: %v", err)
		})
	}
}

func (s *InvoiceServiceSuite) TestRecordRefundAccumulates() {
	ctx := s.GetContext()
	inv := s.CreateInvoice(ctx, decimal.NewFromInt(100), func(inv *invoice.Invoice) {
		inv.InvoiceStatus = types.InvoiceStatusPaid
		inv.PaymentReference = lo.ToPtr("pay_1")
	})

	_, err := s.service.RecordRefund(ctx, inv.ID, &dto.RecordRefundRequest{Amount: decimal.NewFromInt(30), RefundID: "refund_1"})
	s.NoError(err)
	resp, err := s.service.RecordRefund(ctx, inv.ID, &dto.RecordRefundRequest{Amount: decimal.NewFromInt(20), RefundID: "refund_2"})
	s.NoError(err)

	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.True(decimal.NewFromInt(50).Equal(resp.RefundedAmount))
	s.True(decimal.NewFromInt(50).Equal(resp.RefundableAmount))
	s.Equal("refund_2", lo.FromPtr(resp.LastRefundID))
	s.NotNil(resp.RefundedAt)
}

func (s *InvoiceServiceSuite) TestRecordRefundRequiresPaidInvoice() {
	ctx := s.GetContext()
	inv := s.CreateInvoice(ctx, decimal.NewFromInt(100), nil)

	_, err := s.service.RecordRefund(ctx, inv.ID, &dto.RecordRefundRequest{Amount: decimal.NewFromInt(10), RefundID: "refund_1"})
	s.True(ierr.IsInvalidOperation(err))
}
