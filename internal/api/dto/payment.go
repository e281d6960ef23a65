package dto

import (
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopbench/shopbench/internal/validator"
	"github.com/shopspring/decimal"
)

// PaymentConfigResponse tells the UI whether card payments can be taken
type PaymentConfigResponse struct {
	Configured bool   `json:"configured"`
	Provider   string `json:"provider,omitempty"`
	Currency   string `json:"currency"`
}

// ProcessPaymentRequest is a one time charge not tied to an invoice
type ProcessPaymentRequest struct {
	Amount         decimal.Decimal   `json:"amount" swaggertype:"string"`
	Currency       string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	SourceID       string            `json:"source_id" validate:"required"`
	CustomerID     string            `json:"customer_id,omitempty"`
	ReferenceID    string            `json:"reference_id,omitempty" validate:"omitempty,max=40"`
	Note           string            `json:"note,omitempty" validate:"omitempty,max=500"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty" validate:"omitempty,max=45"`
}

func (r *ProcessPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return validatePositiveAmount(r.Amount)
}

// PaymentResultResponse is the normalized outcome of a charge
type PaymentResultResponse struct {
	TransactionID string              `json:"transaction_id"`
	Status        types.PaymentStatus `json:"status"`
	Amount        decimal.Decimal     `json:"amount" swaggertype:"string"`
	Currency      string              `json:"currency"`
}

func NewPaymentResultResponse(r *base.ChargeResult) *PaymentResultResponse {
	return &PaymentResultResponse{
		TransactionID: r.TransactionID,
		Status:        r.Status,
		Amount:        r.Amount,
		Currency:      r.Currency,
	}
}

// PayInvoiceRequest charges the full invoice total
type PayInvoiceRequest struct {
	SourceID       string `json:"source_id" validate:"required"`
	CustomerID     string `json:"customer_id,omitempty"`
	Note           string `json:"note,omitempty" validate:"omitempty,max=500"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (r *PayInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PayInvoiceResponse struct {
	Payment *PaymentResultResponse `json:"payment"`
	Invoice *InvoiceResponse       `json:"invoice"`
}

// RefundPaymentRequest refunds part or all of a paid invoice.
// A nil amount refunds whatever is still refundable.
type RefundPaymentRequest struct {
	Amount         *decimal.Decimal `json:"amount,omitempty" swaggertype:"string"`
	Reason         string           `json:"reason,omitempty" validate:"omitempty,max=192"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

func (r *RefundPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount != nil {
		return validatePositiveAmount(*r.Amount)
	}
	return nil
}

// RefundResponse reports the processor refund. Recorded is false when the
// refund went through but could not be annotated on the invoice.
type RefundResponse struct {
	RefundID string             `json:"refund_id"`
	Status   types.RefundStatus `json:"status"`
	Amount   decimal.Decimal    `json:"amount" swaggertype:"string"`
	Currency string             `json:"currency"`
	Recorded bool               `json:"recorded"`
}

type CreateTerminalCheckoutRequest struct {
	Amount   decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	// DeviceID falls back to the device_id integration setting
	DeviceID       string `json:"device_id,omitempty"`
	InvoiceID      string `json:"invoice_id,omitempty"`
	Note           string `json:"note,omitempty" validate:"omitempty,max=500"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (r *CreateTerminalCheckoutRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return validatePositiveAmount(r.Amount)
}

type TerminalCheckoutResponse struct {
	CheckoutID string                       `json:"checkout_id"`
	Status     types.TerminalCheckoutStatus `json:"status"`
	Amount     decimal.Decimal              `json:"amount" swaggertype:"string"`
	Currency   string                       `json:"currency"`
	PaymentIDs []string                     `json:"payment_ids,omitempty"`
}

func NewTerminalCheckoutResponse(r *base.TerminalCheckoutResult) *TerminalCheckoutResponse {
	return &TerminalCheckoutResponse{
		CheckoutID: r.CheckoutID,
		Status:     r.Status,
		Amount:     r.Amount,
		Currency:   r.Currency,
		PaymentIDs: r.PaymentIDs,
	}
}

// WebhookResponse is always sent with 200 so processors do not retry
type WebhookResponse struct {
	Received bool   `json:"received"`
	Error    string `json:"error,omitempty"`
}

func validatePositiveAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ierr.NewError("amount must be greater than zero").
			WithHint("Amount must be greater than zero").
			WithReportableDetails(map[string]any{
				"amount": amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
