package service

import (
	"context"
	"time"

	"github.com/shopbench/shopbench/internal/api/dto"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
)

// InvoiceService covers the settlement side of invoices. Payment and refund
// annotations are overwrites so callbacks can be replayed safely.
type InvoiceService interface {
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	MarkInvoiceAsPaid(ctx context.Context, id string, req *dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error)
	RecordRefund(ctx context.Context, id string, req *dto.RecordRefundRequest) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) MarkInvoiceAsPaid(ctx context.Context, id string, req *dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus == types.InvoiceStatusCancelled {
		return nil, ierr.NewError("invoice is cancelled").
			WithHint("A cancelled invoice cannot be marked as paid").
			WithReportableDetails(map[string]any{
				"invoice_id": id,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	if err := s.InvoiceRepo.MarkPaid(ctx, id, req.PaymentMethod, req.PaymentReference, paidAt); err != nil {
		return nil, err
	}

	s.Logger.Infow("invoice marked paid",
		"tenant_id", types.GetTenantID(ctx),
		"invoice_id", id,
		"payment_method", req.PaymentMethod,
		"payment_reference", req.PaymentReference,
		"was_paid", inv.InvoiceStatus == types.InvoiceStatusPaid)

	return s.GetInvoice(ctx, id)
}

func (s *invoiceService) RecordRefund(ctx context.Context, id string, req *dto.RecordRefundRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus != types.InvoiceStatusPaid {
		return nil, ierr.NewErrorf("invoice is %s", inv.InvoiceStatus).
			WithHint("Refunds can only be recorded on paid invoices").
			WithReportableDetails(map[string]any{
				"invoice_id": id,
				"status":     inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	refundedAt := time.Now().UTC()
	if req.RefundedAt != nil {
		refundedAt = req.RefundedAt.UTC()
	}

	if err := s.InvoiceRepo.RecordRefund(ctx, id, req.Amount, req.RefundID, refundedAt); err != nil {
		return nil, err
	}

	s.Logger.Infow("refund recorded on invoice",
		"tenant_id", types.GetTenantID(ctx),
		"invoice_id", id,
		"refund_id", req.RefundID,
		"amount", req.Amount.String())

	return s.GetInvoice(ctx, id)
}
