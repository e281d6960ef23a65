package types

import (
	"github.com/samber/lo"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

// SubscriptionStatus is the lifecycle state of a tenant's recurring billing agreement
type SubscriptionStatus string

const (
	SubscriptionStatusNone      SubscriptionStatus = "none"
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusNone,
		SubscriptionStatusPending,
		SubscriptionStatusActive,
		SubscriptionStatusPastDue,
		SubscriptionStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Please provide a valid subscription status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsBillable reports whether the monthly run should produce a payment row
func (s SubscriptionStatus) IsBillable() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusPending
}

// SubscriptionPaymentStatus is the state of one billing cycle's ledger row
type SubscriptionPaymentStatus string

const (
	SubscriptionPaymentStatusPending   SubscriptionPaymentStatus = "pending"
	SubscriptionPaymentStatusSucceeded SubscriptionPaymentStatus = "succeeded"
	SubscriptionPaymentStatusFailed    SubscriptionPaymentStatus = "failed"
)

func (s SubscriptionPaymentStatus) String() string {
	return string(s)
}

func (s SubscriptionPaymentStatus) Validate() error {
	allowed := []SubscriptionPaymentStatus{
		SubscriptionPaymentStatusPending,
		SubscriptionPaymentStatusSucceeded,
		SubscriptionPaymentStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription payment status").
			WithHint("Please provide a valid subscription payment status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// FailureReasonAutopayDisabled marks a cycle that needs a manual payment
const FailureReasonAutopayDisabled = "Autopay not enabled"

// BillingHistoryFilter filters the subscription payment ledger of the current tenant
type BillingHistoryFilter struct {
	*QueryFilter
	Status *SubscriptionPaymentStatus `json:"status,omitempty" form:"status"`
}

func NewBillingHistoryFilter() *BillingHistoryFilter {
	return &BillingHistoryFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *BillingHistoryFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if f.Status != nil {
		if err := f.Status.Validate(); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}
