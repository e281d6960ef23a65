package dto

import (
	"time"

	"github.com/shopbench/shopbench/internal/domain/invoice"
	"github.com/shopbench/shopbench/internal/validator"
	"github.com/shopspring/decimal"
)

type InvoiceResponse struct {
	*invoice.Invoice
	RefundableAmount decimal.Decimal `json:"refundable_amount" swaggertype:"string"`
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		Invoice:          inv,
		RefundableAmount: inv.RefundableAmount(),
	}
}

// MarkInvoicePaidRequest records a settlement. Replaying it is harmless.
type MarkInvoicePaidRequest struct {
	PaymentMethod    string     `json:"payment_method" validate:"required"`
	PaymentReference string     `json:"payment_reference" validate:"required"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

func (r *MarkInvoicePaidRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type RecordRefundRequest struct {
	Amount     decimal.Decimal `json:"amount" swaggertype:"string"`
	RefundID   string          `json:"refund_id" validate:"required"`
	RefundedAt *time.Time      `json:"refunded_at,omitempty"`
}

func (r *RecordRefundRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return validatePositiveAmount(r.Amount)
}
