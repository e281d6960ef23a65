package square

// Money is Square's amount envelope, in the smallest currency unit
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// APIError is one entry of Square's error envelope
type APIError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

type errorResponse struct {
	Errors []APIError `json:"errors"`
}

type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Currency string `json:"currency"`
}

type locationResponse struct {
	Location Location `json:"location"`
}

type listLocationsResponse struct {
	Locations []Location `json:"locations"`
}

type createCustomerRequest struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	EmailAddress   string `json:"email_address,omitempty"`
	ReferenceID    string `json:"reference_id,omitempty"`
}

type Customer struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	ReferenceID string `json:"reference_id"`
}

type customerResponse struct {
	Customer Customer `json:"customer"`
}

type createCardRequest struct {
	IdempotencyKey string      `json:"idempotency_key"`
	SourceID       string      `json:"source_id"`
	Card           cardRequest `json:"card"`
}

type cardRequest struct {
	CustomerID string `json:"customer_id"`
}

type Card struct {
	ID        string `json:"id"`
	CardBrand string `json:"card_brand"`
	Last4     string `json:"last_4"`
	Enabled   bool   `json:"enabled"`
}

type cardResponse struct {
	Card Card `json:"card"`
}

type createSubscriptionRequest struct {
	IdempotencyKey     string `json:"idempotency_key"`
	LocationID         string `json:"location_id"`
	PlanVariationID    string `json:"plan_variation_id"`
	CustomerID         string `json:"customer_id"`
	CardID             string `json:"card_id,omitempty"`
	PriceOverrideMoney *Money `json:"price_override_money,omitempty"`
}

type updateSubscriptionRequest struct {
	Subscription subscriptionUpdate `json:"subscription"`
}

type subscriptionUpdate struct {
	CardID             string `json:"card_id,omitempty"`
	PriceOverrideMoney *Money `json:"price_override_money,omitempty"`
}

type Subscription struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CustomerID         string `json:"customer_id"`
	PriceOverrideMoney *Money `json:"price_override_money,omitempty"`
}

type subscriptionResponse struct {
	Subscription Subscription `json:"subscription"`
}

type createPaymentRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	SourceID       string `json:"source_id"`
	AmountMoney    Money  `json:"amount_money"`
	CustomerID     string `json:"customer_id,omitempty"`
	LocationID     string `json:"location_id,omitempty"`
	ReferenceID    string `json:"reference_id,omitempty"`
	Note           string `json:"note,omitempty"`
	Autocomplete   bool   `json:"autocomplete"`
}

type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AmountMoney Money  `json:"amount_money"`
	ReferenceID string `json:"reference_id,omitempty"`
}

type paymentResponse struct {
	Payment Payment `json:"payment"`
}

type refundPaymentRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	PaymentID      string `json:"payment_id"`
	AmountMoney    Money  `json:"amount_money"`
	Reason         string `json:"reason,omitempty"`
}

type Refund struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	PaymentID   string `json:"payment_id"`
	AmountMoney Money  `json:"amount_money"`
}

type refundResponse struct {
	Refund Refund `json:"refund"`
}

type createCheckoutRequest struct {
	IdempotencyKey string          `json:"idempotency_key"`
	Checkout       checkoutRequest `json:"checkout"`
}

type checkoutRequest struct {
	AmountMoney   Money         `json:"amount_money"`
	ReferenceID   string        `json:"reference_id,omitempty"`
	Note          string        `json:"note,omitempty"`
	DeviceOptions deviceOptions `json:"device_options"`
}

type deviceOptions struct {
	DeviceID string `json:"device_id"`
}

type TerminalCheckout struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	AmountMoney Money    `json:"amount_money"`
	ReferenceID string   `json:"reference_id,omitempty"`
	PaymentIDs  []string `json:"payment_ids,omitempty"`
}

type checkoutResponse struct {
	Checkout TerminalCheckout `json:"checkout"`
}
