package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/domain/invoice"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
)

type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	// RecordRefundErr, when set, is returned by every RecordRefund
	RecordRefundErr error
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func invoiceNotFound(id string) error {
	return ierr.NewError("invoice not found").
		WithHint("Invoice not found").
		WithReportableDetails(map[string]any{"invoice_id": id}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	copied := *inv
	return s.InMemoryStore.Create(ctx, inv.ID, &copied)
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckTenantFilter(ctx, inv.TenantID) || !CheckPublished(inv.Status) {
		return nil, invoiceNotFound(id)
	}
	copied := *inv
	return &copied, nil
}

func (s *InMemoryInvoiceStore) GetTenantID(ctx context.Context, id string) (string, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckPublished(inv.Status) {
		return "", invoiceNotFound(id)
	}
	return inv.TenantID, nil
}

func (s *InMemoryInvoiceStore) MarkPaid(ctx context.Context, id string, method string, reference string, paidAt time.Time) error {
	return s.Mutate(ctx, id, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if !CheckTenantFilter(ctx, inv.TenantID) || !CheckPublished(inv.Status) {
			return nil, invoiceNotFound(id)
		}
		updated := *inv
		updated.InvoiceStatus = types.InvoiceStatusPaid
		updated.PaymentMethod = lo.ToPtr(method)
		updated.PaymentReference = lo.ToPtr(reference)
		if updated.PaidAt == nil {
			updated.PaidAt = lo.ToPtr(paidAt.UTC())
		}
		updated.UpdatedAt = time.Now().UTC()
		return &updated, nil
	})
}

func (s *InMemoryInvoiceStore) RecordRefund(ctx context.Context, id string, amount decimal.Decimal, refundID string, refundedAt time.Time) error {
	if s.RecordRefundErr != nil {
		return s.RecordRefundErr
	}
	return s.Mutate(ctx, id, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if !CheckTenantFilter(ctx, inv.TenantID) || !CheckPublished(inv.Status) {
			return nil, invoiceNotFound(id)
		}
		updated := *inv
		updated.RefundedAmount = updated.RefundedAmount.Add(amount)
		updated.LastRefundID = lo.ToPtr(refundID)
		updated.RefundedAt = lo.ToPtr(refundedAt.UTC())
		updated.UpdatedAt = time.Now().UTC()
		return &updated, nil
	})
}
