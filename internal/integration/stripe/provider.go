package stripe

import (
	"context"
	"strings"

	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// MetadataReferenceID is the metadata key carrying our invoice id on payment intents
const MetadataReferenceID = "reference_id"

// Provider implements base.PaymentProvider on stripe-go
type Provider struct {
	client *Client
}

var _ base.PaymentProvider = (*Provider)(nil)

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() types.PaymentProvider {
	return types.PaymentProviderStripe
}

// TestConnection lists a single customer to verify the key
func (p *Provider) TestConnection(ctx context.Context) error {
	params := &stripe.CustomerListParams{}
	params.Limit = stripe.Int64(1)

	for _, err := range p.client.api.V1Customers.List(ctx, params) {
		if err != nil {
			return p.client.translateError(err, "test_connection")
		}
		break
	}
	return nil
}

func (p *Provider) CreateCustomer(ctx context.Context, params *base.CreateCustomerParams) (*base.CustomerResult, error) {
	createParams := &stripe.CustomerCreateParams{
		Name:     stripe.String(params.Name),
		Metadata: map[string]string{
			"tenant_id": params.ReferenceID,
		},
	}
	if params.Email != "" {
		createParams.Email = stripe.String(params.Email)
	}
	if params.IdempotencyKey != "" {
		createParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	customer, err := p.client.api.V1Customers.Create(ctx, createParams)
	if err != nil {
		return nil, p.client.translateError(err, "create_customer")
	}

	return &base.CustomerResult{CustomerID: customer.ID}, nil
}

// SaveCardForCustomer attaches the payment method and makes it the invoice default
func (p *Provider) SaveCardForCustomer(ctx context.Context, params *base.SaveCardParams) (*base.CardResult, error) {
	attachParams := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(params.CustomerID),
	}
	if params.IdempotencyKey != "" {
		attachParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	pm, err := p.client.api.V1PaymentMethods.Attach(ctx, params.CardToken, attachParams)
	if err != nil {
		return nil, p.client.translateError(err, "attach_payment_method")
	}

	updateParams := &stripe.CustomerUpdateParams{
		InvoiceSettings: &stripe.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(pm.ID),
		},
	}
	if _, err := p.client.api.V1Customers.Update(ctx, params.CustomerID, updateParams); err != nil {
		return nil, p.client.translateError(err, "set_default_payment_method")
	}

	result := &base.CardResult{CardID: pm.ID}
	if pm.Card != nil {
		result.Brand = string(pm.Card.Brand)
		result.Last4 = pm.Card.Last4
	}
	return result, nil
}

// CreateSubscription subscribes the customer to the per location price with
// the billable location count as quantity
func (p *Provider) CreateSubscription(ctx context.Context, params *base.CreateSubscriptionParams) (*base.SubscriptionResult, error) {
	if params.PlanID == "" {
		return nil, ierr.NewError("missing Stripe price id").
			WithHint("Configure the subscription plan id in the payment integration settings").
			Mark(ierr.ErrConfiguration)
	}

	createParams := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(params.CustomerID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{
				Price:    stripe.String(params.PlanID),
				Quantity: stripe.Int64(int64(params.Quantity)),
			},
		},
		Metadata: map[string]string{
			"tenant_id": params.ReferenceID,
		},
	}
	if params.CardID != "" {
		createParams.DefaultPaymentMethod = stripe.String(params.CardID)
	}
	if params.IdempotencyKey != "" {
		createParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	sub, err := p.client.api.V1Subscriptions.Create(ctx, createParams)
	if err != nil {
		return nil, p.client.translateError(err, "create_subscription")
	}

	return &base.SubscriptionResult{
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
	}, nil
}

// UpdateSubscription sets the quantity of the subscription's single item
func (p *Provider) UpdateSubscription(ctx context.Context, params *base.UpdateSubscriptionParams) (*base.SubscriptionResult, error) {
	updateParams := &stripe.SubscriptionUpdateParams{}
	if params.CardID != "" {
		updateParams.DefaultPaymentMethod = stripe.String(params.CardID)
	}

	if params.Quantity > 0 {
		current, err := p.client.api.V1Subscriptions.Retrieve(ctx, params.SubscriptionID, nil)
		if err != nil {
			return nil, p.client.translateError(err, "retrieve_subscription")
		}
		if current.Items == nil || len(current.Items.Data) == 0 {
			return nil, ierr.NewError("stripe subscription has no items").
				WithHint("The Stripe subscription has no price to update").
				WithReportableDetails(map[string]interface{}{
					"subscription_id": params.SubscriptionID,
				}).
				Mark(ierr.ErrPaymentProcessing)
		}
		updateParams.Items = []*stripe.SubscriptionUpdateItemParams{
			{
				ID:       stripe.String(current.Items.Data[0].ID),
				Quantity: stripe.Int64(int64(params.Quantity)),
			},
		}
	}

	sub, err := p.client.api.V1Subscriptions.Update(ctx, params.SubscriptionID, updateParams)
	if err != nil {
		return nil, p.client.translateError(err, "update_subscription")
	}

	return &base.SubscriptionResult{
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
	}, nil
}

func (p *Provider) Charge(ctx context.Context, params *base.ChargeParams) (*base.ChargeResult, error) {
	metadata := map[string]string{
		MetadataReferenceID: params.ReferenceID,
	}
	for k, v := range params.Metadata {
		metadata[k] = v
	}

	createParams := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(base.ToMinorUnits(params.Amount, params.Currency)),
		Currency:      stripe.String(strings.ToLower(params.Currency)),
		PaymentMethod: stripe.String(params.SourceID),
		Confirm:       stripe.Bool(true),
		Metadata:      metadata,
	}
	if params.CustomerID != "" {
		createParams.Customer = stripe.String(params.CustomerID)
		createParams.OffSession = stripe.Bool(true)
	}
	if params.Note != "" {
		createParams.Description = stripe.String(params.Note)
	}
	if params.IdempotencyKey != "" {
		createParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	pi, err := p.client.api.V1PaymentIntents.Create(ctx, createParams)
	if err != nil {
		return nil, p.client.translateError(err, "create_payment_intent")
	}

	return &base.ChargeResult{
		TransactionID: pi.ID,
		Status:        toPaymentStatus(pi.Status),
		Amount:        base.FromMinorUnits(pi.Amount, string(pi.Currency)),
		Currency:      strings.ToUpper(string(pi.Currency)),
	}, nil
}

func (p *Provider) Refund(ctx context.Context, params *base.RefundParams) (*base.RefundResult, error) {
	createParams := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(params.TransactionID),
		Amount:        stripe.Int64(base.ToMinorUnits(params.Amount, params.Currency)),
	}
	if params.Reason != "" {
		createParams.Metadata = map[string]string{"reason": params.Reason}
	}
	if params.IdempotencyKey != "" {
		createParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	refund, err := p.client.api.V1Refunds.Create(ctx, createParams)
	if err != nil {
		return nil, p.client.translateError(err, "create_refund")
	}

	return &base.RefundResult{
		RefundID: refund.ID,
		Status:   toRefundStatus(string(refund.Status)),
		Amount:   base.FromMinorUnits(refund.Amount, string(refund.Currency)),
		Currency: strings.ToUpper(string(refund.Currency)),
	}, nil
}

// CreateTerminalCheckout creates a card_present payment intent and hands it to
// the reader. The payment intent id doubles as the checkout id.
func (p *Provider) CreateTerminalCheckout(ctx context.Context, params *base.TerminalCheckoutParams) (*base.TerminalCheckoutResult, error) {
	if params.DeviceID == "" {
		return nil, ierr.NewError("missing terminal reader id").
			WithHint("Provide a reader id or configure one in the payment integration settings").
			Mark(ierr.ErrConfiguration)
	}

	createParams := &stripe.PaymentIntentCreateParams{
		Amount:             stripe.Int64(base.ToMinorUnits(params.Amount, params.Currency)),
		Currency:           stripe.String(strings.ToLower(params.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card_present"}),
		Metadata: map[string]string{
			MetadataReferenceID: params.ReferenceID,
		},
	}
	if params.Note != "" {
		createParams.Description = stripe.String(params.Note)
	}
	if params.IdempotencyKey != "" {
		createParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	pi, err := p.client.api.V1PaymentIntents.Create(ctx, createParams)
	if err != nil {
		return nil, p.client.translateError(err, "create_terminal_payment_intent")
	}

	processParams := &stripe.TerminalReaderProcessPaymentIntentParams{
		PaymentIntent: stripe.String(pi.ID),
	}
	if _, err := p.client.api.V1TerminalReaders.ProcessPaymentIntent(ctx, params.DeviceID, processParams); err != nil {
		return nil, p.client.translateError(err, "process_terminal_payment_intent")
	}

	return toCheckoutResult(pi), nil
}

func (p *Provider) GetTerminalCheckoutStatus(ctx context.Context, checkoutID string) (*base.TerminalCheckoutResult, error) {
	pi, err := p.client.api.V1PaymentIntents.Retrieve(ctx, checkoutID, nil)
	if err != nil {
		return nil, p.client.translateError(err, "retrieve_payment_intent")
	}
	return toCheckoutResult(pi), nil
}

func toCheckoutResult(pi *stripe.PaymentIntent) *base.TerminalCheckoutResult {
	result := &base.TerminalCheckoutResult{
		CheckoutID: pi.ID,
		Status:     toCheckoutStatus(pi.Status),
		Amount:     base.FromMinorUnits(pi.Amount, string(pi.Currency)),
		Currency:   strings.ToUpper(string(pi.Currency)),
	}
	if result.Status == types.TerminalCheckoutStatusCompleted {
		result.PaymentIDs = []string{pi.ID}
	}
	return result
}

func toPaymentStatus(status stripe.PaymentIntentStatus) types.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return types.PaymentStatusCompleted
	case stripe.PaymentIntentStatusCanceled:
		return types.PaymentStatusCancelled
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// a confirmed intent falls back here when the card was declined
		return types.PaymentStatusFailed
	default:
		return types.PaymentStatusPending
	}
}

func toRefundStatus(status string) types.RefundStatus {
	switch status {
	case "succeeded":
		return types.RefundStatusCompleted
	case "failed", "canceled":
		return types.RefundStatusFailed
	default:
		return types.RefundStatusPending
	}
}

func toCheckoutStatus(status stripe.PaymentIntentStatus) types.TerminalCheckoutStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return types.TerminalCheckoutStatusCompleted
	case stripe.PaymentIntentStatusCanceled:
		return types.TerminalCheckoutStatusCancelled
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return types.TerminalCheckoutStatusInProgress
	default:
		return types.TerminalCheckoutStatusPending
	}
}
