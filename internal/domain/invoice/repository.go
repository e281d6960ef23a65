package invoice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Invoice, error)
	// GetTenantID is not tenant scoped. Processor callbacks only carry the invoice id.
	GetTenantID(ctx context.Context, id string) (string, error)
	// MarkPaid overwrites the payment fields and keeps the first paid_at
	MarkPaid(ctx context.Context, id string, method string, reference string, paidAt time.Time) error
	// RecordRefund adds amount to refunded_amount and stores refundID as the last refund
	RecordRefund(ctx context.Context, id string, amount decimal.Decimal, refundID string, refundedAt time.Time) error
}
