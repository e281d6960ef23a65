package invoice

import (
	"time"

	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is a customer bill of a tenant. Refunds annotate a paid invoice
// without moving it out of paid.
type Invoice struct {
	ID               string              `db:"id" json:"id"`
	CustomerID       *string             `db:"customer_id" json:"customer_id,omitempty"`
	InvoiceNumber    *string             `db:"invoice_number" json:"invoice_number,omitempty"`
	InvoiceStatus    types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	TotalAmount      decimal.Decimal     `db:"total_amount" json:"total_amount"`
	Currency         string              `db:"currency" json:"currency"`
	PaymentMethod    *string             `db:"payment_method" json:"payment_method,omitempty"`
	PaymentReference *string             `db:"payment_reference" json:"payment_reference,omitempty"`
	PaidAt           *time.Time          `db:"paid_at" json:"paid_at,omitempty"`
	RefundedAmount   decimal.Decimal     `db:"refunded_amount" json:"refunded_amount"`
	LastRefundID     *string             `db:"last_refund_id" json:"last_refund_id,omitempty"`
	RefundedAt       *time.Time          `db:"refunded_at" json:"refunded_at,omitempty"`

	types.BaseModel
}

// RefundableAmount is what can still be returned to the customer
func (i *Invoice) RefundableAmount() decimal.Decimal {
	return i.TotalAmount.Sub(i.RefundedAmount)
}
