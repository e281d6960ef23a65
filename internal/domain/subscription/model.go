package subscription

import (
	"time"

	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is a tenant's recurring billing agreement with a payment processor.
// At most one non-deleted subscription exists per tenant.
type Subscription struct {
	ID       string                `db:"id" json:"id"`
	Provider types.PaymentProvider `db:"provider" json:"provider"`

	// Processor handles
	ExternalCustomerID     *string `db:"external_customer_id" json:"external_customer_id,omitempty"`
	ExternalCardID         *string `db:"external_card_id" json:"external_card_id,omitempty"`
	ExternalSubscriptionID *string `db:"external_subscription_id" json:"external_subscription_id,omitempty"`

	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// MonthlyAmount is cached from the billing calculator and refreshed on location changes
	MonthlyAmount  decimal.Decimal `db:"monthly_amount" json:"monthly_amount"`
	Currency       string          `db:"currency" json:"currency"`
	BillingDay     int             `db:"billing_day" json:"billing_day"`
	AutopayEnabled bool            `db:"autopay_enabled" json:"autopay_enabled"`

	types.BaseModel
}

// HasExternalSubscription reports whether the processor owns the recurring charge
func (s *Subscription) HasExternalSubscription() bool {
	return s.ExternalSubscriptionID != nil && *s.ExternalSubscriptionID != ""
}

// Payment is the append-only ledger row for one billing cycle.
// (SubscriptionID, BillingPeriodStart) is unique.
type Payment struct {
	ID                 string                          `db:"id" json:"id"`
	SubscriptionID     string                          `db:"subscription_id" json:"subscription_id"`
	Amount             decimal.Decimal                 `db:"amount" json:"amount"`
	Currency           string                          `db:"currency" json:"currency"`
	PaymentStatus      types.SubscriptionPaymentStatus `db:"payment_status" json:"payment_status"`
	BillingPeriodStart time.Time                       `db:"billing_period_start" json:"billing_period_start"`
	BillingPeriodEnd   time.Time                       `db:"billing_period_end" json:"billing_period_end"`
	LocationCount      int                             `db:"location_count" json:"location_count"`
	FailureReason      *string                         `db:"failure_reason" json:"failure_reason,omitempty"`
	ProcessorPaymentID *string                         `db:"processor_payment_id" json:"processor_payment_id,omitempty"`

	types.BaseModel
}
