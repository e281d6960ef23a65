package types

import (
	"github.com/samber/lo"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

// InvoiceStatus is the settlement state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusIssued,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsPayable reports whether a new charge may be attempted against the invoice
func (s InvoiceStatus) IsPayable() bool {
	return s != InvoiceStatusPaid && s != InvoiceStatusCancelled
}
