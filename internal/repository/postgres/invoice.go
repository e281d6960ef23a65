package postgres

import (
	"context"
	"time"

	"github.com/shopbench/shopbench/internal/domain/invoice"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, customer_id, invoice_number, invoice_status, total_amount, currency,
	payment_method, payment_reference, paid_at, refunded_amount, last_refund_id, refunded_at,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	var inv invoice.Invoice
	err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapQueryError(err, "Invoice", map[string]any{"invoice_id": id})
	}
	return &inv, nil
}

func (r *invoiceRepository) GetTenantID(ctx context.Context, id string) (string, error) {
	query := `SELECT tenant_id FROM invoices WHERE id = $1 AND status = $2`

	var tenantID string
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &tenantID, query, id, types.StatusPublished); err != nil {
		return "", wrapQueryError(err, "Invoice", map[string]any{"invoice_id": id})
	}
	return tenantID, nil
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, id string, method string, reference string, paidAt time.Time) error {
	query := `
		UPDATE invoices SET
			invoice_status = $1,
			payment_method = $2,
			payment_reference = $3,
			paid_at = COALESCE(paid_at, $4),
			updated_at = NOW(),
			updated_by = $5
		WHERE id = $6 AND tenant_id = $7 AND status = $8`

	r.logger.Debugw("marking invoice paid",
		"invoice_id", id,
		"tenant_id", types.GetTenantID(ctx),
		"payment_method", method,
		"payment_reference", reference,
	)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.InvoiceStatusPaid, method, reference, paidAt,
		types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return wrapQueryError(err, "Invoice", map[string]any{"invoice_id": id})
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return notFound("Invoice", map[string]any{"invoice_id": id})
	}
	return nil
}

func (r *invoiceRepository) RecordRefund(ctx context.Context, id string, amount decimal.Decimal, refundID string, refundedAt time.Time) error {
	query := `
		UPDATE invoices SET
			refunded_amount = refunded_amount + $1,
			last_refund_id = $2,
			refunded_at = $3,
			updated_at = NOW(),
			updated_by = $4
		WHERE id = $5 AND tenant_id = $6 AND status = $7`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		amount, refundID, refundedAt,
		types.GetUserID(ctx), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return wrapQueryError(err, "Invoice", map[string]any{"invoice_id": id})
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return notFound("Invoice", map[string]any{"invoice_id": id})
	}
	return nil
}
