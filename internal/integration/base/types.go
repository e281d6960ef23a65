package base

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopspring/decimal"
)

// PaymentProvider is the capability contract every payment processor variant
// implements. A provider is bound to one tenant's decrypted credentials when
// it is built, so none of the calls take configuration.
type PaymentProvider interface {
	Name() types.PaymentProvider

	// TestConnection performs a cheap authenticated call against the processor
	TestConnection(ctx context.Context) error

	CreateCustomer(ctx context.Context, params *CreateCustomerParams) (*CustomerResult, error)
	SaveCardForCustomer(ctx context.Context, params *SaveCardParams) (*CardResult, error)

	CreateSubscription(ctx context.Context, params *CreateSubscriptionParams) (*SubscriptionResult, error)
	UpdateSubscription(ctx context.Context, params *UpdateSubscriptionParams) (*SubscriptionResult, error)

	Charge(ctx context.Context, params *ChargeParams) (*ChargeResult, error)
	Refund(ctx context.Context, params *RefundParams) (*RefundResult, error)

	CreateTerminalCheckout(ctx context.Context, params *TerminalCheckoutParams) (*TerminalCheckoutResult, error)
	GetTerminalCheckoutStatus(ctx context.Context, checkoutID string) (*TerminalCheckoutResult, error)
}

// WebhookParser turns a raw processor callback into a normalized event.
// Parsing never needs tenant credentials.
type WebhookParser func(payload []byte) (*WebhookEvent, error)

type CreateCustomerParams struct {
	ReferenceID    string
	Name           string
	Email          string
	IdempotencyKey string
}

type CustomerResult struct {
	CustomerID string
}

type SaveCardParams struct {
	CustomerID string
	// CardToken is the single use card nonce or payment method id from the client SDK
	CardToken      string
	IdempotencyKey string
}

type CardResult struct {
	CardID string
	Brand  string
	Last4  string
}

type CreateSubscriptionParams struct {
	CustomerID     string
	CardID         string
	PlanID         string
	Quantity       int
	Amount         decimal.Decimal
	Currency       string
	ReferenceID    string
	IdempotencyKey string
}

// UpdateSubscriptionParams changes an existing subscription. Zero values
// leave the matching processor field untouched.
type UpdateSubscriptionParams struct {
	SubscriptionID string
	CardID         string
	Quantity       int
	Amount         decimal.Decimal
	Currency       string
}

type SubscriptionResult struct {
	SubscriptionID string
	Status         string
}

type ChargeParams struct {
	Amount   decimal.Decimal
	Currency string
	// SourceID is a card nonce, a saved card id or a payment method id
	SourceID       string
	CustomerID     string
	ReferenceID    string
	Note           string
	Metadata       map[string]string
	IdempotencyKey string
}

type ChargeResult struct {
	TransactionID string
	Status        types.PaymentStatus
	Amount        decimal.Decimal
	Currency      string
}

type RefundParams struct {
	TransactionID  string
	Amount         decimal.Decimal
	Currency       string
	Reason         string
	IdempotencyKey string
}

type RefundResult struct {
	RefundID string
	Status   types.RefundStatus
	Amount   decimal.Decimal
	Currency string
}

type TerminalCheckoutParams struct {
	Amount         decimal.Decimal
	Currency       string
	DeviceID       string
	ReferenceID    string
	Note           string
	IdempotencyKey string
}

type TerminalCheckoutResult struct {
	CheckoutID string
	Status     types.TerminalCheckoutStatus
	Amount     decimal.Decimal
	Currency   string
	PaymentIDs []string
}

// WebhookEvent is the provider independent view of a processor callback
type WebhookEvent struct {
	Kind      types.WebhookEventKind
	EventType string
	// TransactionID is the processor payment id
	TransactionID string
	// ReferenceID is the id we attached when creating the payment, an invoice id
	ReferenceID    string
	Paid           bool
	SubscriptionID string
	Reason         string
	// PeriodStart falls inside the billing period a subscription event
	// settles, nil when the processor did not say
	PeriodStart *time.Time
}

// IsInvoiceSettlement reports whether the event marks an invoice as paid
func (e *WebhookEvent) IsInvoiceSettlement() bool {
	if e == nil || !e.Paid {
		return false
	}
	if e.Kind != types.WebhookEventPaymentCompleted && e.Kind != types.WebhookEventTerminalCheckoutCompleted {
		return false
	}
	return e.TransactionID != "" && e.ReferenceID != ""
}

// IsSubscriptionEvent reports whether the event settles a subscription charge
func (e *WebhookEvent) IsSubscriptionEvent() bool {
	if e == nil || e.SubscriptionID == "" {
		return false
	}
	return e.Kind == types.WebhookEventSubscriptionPaid || e.Kind == types.WebhookEventSubscriptionPaymentFailed
}

var zeroDecimalCurrencies = []string{"BIF", "CLP", "DJF", "GNF", "JPY", "KMF", "KRW", "MGA", "PYG", "RWF", "UGX", "VND", "VUV", "XAF", "XOF", "XPF"}

func isZeroDecimal(currency string) bool {
	return lo.Contains(zeroDecimalCurrencies, strings.ToUpper(currency))
}

// ToMinorUnits converts an amount to the smallest currency unit processors expect
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if isZeroDecimal(currency) {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts a processor amount back to a decimal amount
func FromMinorUnits(amount int64, currency string) decimal.Decimal {
	if isZeroDecimal(currency) {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}
