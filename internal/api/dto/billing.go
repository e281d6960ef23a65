package dto

import (
	"time"

	"github.com/shopbench/shopbench/internal/domain/subscription"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopbench/shopbench/internal/validator"
	"github.com/shopspring/decimal"
)

// MonthlyAmountResponse is the location based monthly charge of a tenant.
// LocationCount counts billable locations only.
type MonthlyAmountResponse struct {
	Amount            decimal.Decimal `json:"amount" swaggertype:"string"`
	LocationCount     int             `json:"location_count"`
	FreeLocationCount int             `json:"free_location_count"`
	UnitPrice         decimal.Decimal `json:"unit_price" swaggertype:"string"`
	Currency          string          `json:"currency"`
}

// CreateSubscriptionRequest carries the single use card token from the processor's client SDK
type CreateSubscriptionRequest struct {
	PaymentToken string `json:"payment_token" validate:"required"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type SubscriptionResponse struct {
	*subscription.Subscription
}

func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{Subscription: sub}
}

type ToggleLocationBillingRequest struct {
	IsFree *bool `json:"is_free" validate:"required"`
}

func (r *ToggleLocationBillingRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type ToggleLocationBillingResponse struct {
	LocationID    string                 `json:"location_id"`
	IsFree        bool                   `json:"is_free"`
	MonthlyAmount *MonthlyAmountResponse `json:"monthly_amount"`
}

type SubscriptionPaymentResponse struct {
	*subscription.Payment
}

func NewSubscriptionPaymentResponse(p *subscription.Payment) *SubscriptionPaymentResponse {
	return &SubscriptionPaymentResponse{Payment: p}
}

// ListSubscriptionPaymentsResponse is the tenant's billing history
type ListSubscriptionPaymentsResponse = types.ListResponse[*SubscriptionPaymentResponse]

// BillingRunResponse summarizes one pass of the monthly billing job
type BillingRunResponse struct {
	RunAt         time.Time `json:"run_at"`
	BillingDay    int       `json:"billing_day"`
	Skipped       bool      `json:"skipped"`
	Processed     int       `json:"processed"`
	Created       int       `json:"created"`
	AlreadyBilled int       `json:"already_billed"`
	Failed        int       `json:"failed"`
}
