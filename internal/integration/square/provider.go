package square

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
)

// Provider implements base.PaymentProvider on the Square API
type Provider struct {
	client *Client
}

var _ base.PaymentProvider = (*Provider)(nil)

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() types.PaymentProvider {
	return types.PaymentProviderSquare
}

// TestConnection reads the configured location, or lists locations when none is set
func (p *Provider) TestConnection(ctx context.Context) error {
	if p.client.LocationID() != "" {
		var resp locationResponse
		return p.client.makeRequest(ctx, http.MethodGet, "/v2/locations/"+url.PathEscape(p.client.LocationID()), nil, &resp)
	}

	var resp listLocationsResponse
	return p.client.makeRequest(ctx, http.MethodGet, "/v2/locations", nil, &resp)
}

func (p *Provider) CreateCustomer(ctx context.Context, params *base.CreateCustomerParams) (*base.CustomerResult, error) {
	req := createCustomerRequest{
		IdempotencyKey: params.IdempotencyKey,
		CompanyName:    params.Name,
		EmailAddress:   params.Email,
		ReferenceID:    params.ReferenceID,
	}

	var resp customerResponse
	if err := p.client.makeRequest(ctx, http.MethodPost, "/v2/customers", req, &resp); err != nil {
		return nil, err
	}

	return &base.CustomerResult{CustomerID: resp.Customer.ID}, nil
}

func (p *Provider) SaveCardForCustomer(ctx context.Context, params *base.SaveCardParams) (*base.CardResult, error) {
	req := createCardRequest{
		IdempotencyKey: params.IdempotencyKey,
		SourceID:       params.CardToken,
		Card:           cardRequest{CustomerID: params.CustomerID},
	}

	var resp cardResponse
	if err := p.client.makeRequest(ctx, http.MethodPost, "/v2/cards", req, &resp); err != nil {
		return nil, err
	}

	return &base.CardResult{
		CardID: resp.Card.ID,
		Brand:  resp.Card.CardBrand,
		Last4:  resp.Card.Last4,
	}, nil
}

// CreateSubscription subscribes the customer to the plan variation with the
// location based monthly amount as a price override
func (p *Provider) CreateSubscription(ctx context.Context, params *base.CreateSubscriptionParams) (*base.SubscriptionResult, error) {
	if p.client.LocationID() == "" {
		return nil, ierr.NewError("missing Square location id").
			WithHint("Configure the Square billing location in the payment integration").
			Mark(ierr.ErrConfiguration)
	}
	if params.PlanID == "" {
		return nil, ierr.NewError("missing Square subscription plan").
			WithHint("Configure the subscription plan id in the payment integration settings").
			Mark(ierr.ErrConfiguration)
	}

	req := createSubscriptionRequest{
		IdempotencyKey:  params.IdempotencyKey,
		LocationID:      p.client.LocationID(),
		PlanVariationID: params.PlanID,
		CustomerID:      params.CustomerID,
		CardID:          params.CardID,
		PriceOverrideMoney: &Money{
			Amount:   base.ToMinorUnits(params.Amount, params.Currency),
			Currency: strings.ToUpper(params.Currency),
		},
	}

	var resp subscriptionResponse
	if err := p.client.makeRequest(ctx, http.MethodPost, "/v2/subscriptions", req, &resp); err != nil {
		return nil, err
	}

	return &base.SubscriptionResult{
		SubscriptionID: resp.Subscription.ID,
		Status:         resp.Subscription.Status,
	}, nil
}

func (p *Provider) UpdateSubscription(ctx context.Context, params *base.UpdateSubscriptionParams) (*base.SubscriptionResult, error) {
	req := updateSubscriptionRequest{
		Subscription: subscriptionUpdate{
			CardID: params.CardID,
		},
	}
	if params.Amount.IsPositive() {
		req.Subscription.PriceOverrideMoney = &Money{
			Amount:   base.ToMinorUnits(params.Amount, params.Currency),
			Currency: strings.ToUpper(params.Currency),
		}
	}

	var resp subscriptionResponse
	endpoint := "/v2/subscriptions/" + url.PathEscape(params.SubscriptionID)
	if err := p.client.makeRequest(ctx, http.MethodPut, endpoint, req, &resp); err != nil {
		return nil, err
	}

	return &base.SubscriptionResult{
		SubscriptionID: resp.Subscription.ID,
		Status:         resp.Subscription.Status,
	}, nil
}

func (p *Provider) Charge(ctx context.Context, params *base.ChargeParams) (*base.ChargeResult, error) {
	req := createPaymentRequest{
		IdempotencyKey: params.IdempotencyKey,
		SourceID:       params.SourceID,
		AmountMoney: Money{
			Amount:   base.ToMinorUnits(params.Amount, params.Currency),
			Currency: strings.ToUpper(params.Currency),
		},
		CustomerID:   params.CustomerID,
		LocationID:   p.client.LocationID(),
		ReferenceID:  params.ReferenceID,
		Note:         params.Note,
		Autocomplete: true,
	}

	var resp paymentResponse
	if err := p.client.makeRequest(ctx, http.MethodPost, "/v2/payments", req, &resp); err != nil {
		return nil, err
	}

	return &base.ChargeResult{
		TransactionID: resp.Payment.ID,
		Status:        toPaymentStatus(resp.Payment.Status),
		Amount:        base.FromMinorUnits(resp.Payment.AmountMoney.Amount, resp.Payment.AmountMoney.Currency),
		Currency:      resp.Payment.AmountMoney.Currency,
	}, nil
}

func (p *Provider) Refund(ctx context.Context, params *base.RefundParams) (*base.RefundResult, error) {
	req := refundPaymentRequest{
		IdempotencyKey: params.IdempotencyKey,
		PaymentID:      params.TransactionID,
		AmountMoney: Money{
			Amount:   base.ToMinorUnits(params.Amount, params.Currency),
			Currency: strings.ToUpper(params.Currency),
		},
		Reason: params.Reason,
	}

	var resp refundResponse
	if err := p.client.makeRequest(ctx, http.MethodPost, "/v2/refunds", req, &resp); err != nil {
		return nil, err
	}

	return &base.RefundResult{
		RefundID: resp.Refund.ID,
		Status:   toRefundStatus(resp.Refund.Status),
		Amount:   base.FromMinorUnits(resp.Refund.AmountMoney.Amount, resp.Refund.AmountMoney.Currency),
		Currency: resp.Refund.AmountMoney.Currency,
	}, nil
}

func (p *Provider) CreateTerminalCheckout(ctx context.Context, params *base.TerminalCheckoutParams) (*base.TerminalCheckoutResult, error) {
	if params.DeviceID == "" {
		return nil, ierr.NewError("missing terminal device id").
			WithHint("Provide a device id or configure one in the payment integration settings").
			Mark(ierr.ErrConfiguration)
	}

	req := createCheckoutRequest{
		IdempotencyKey: params.IdempotencyKey,
		Checkout: checkoutRequest{
			AmountMoney: Money{
				Amount:   base.ToMinorUnits(params.Amount, params.Currency),
				Currency: strings.ToUpper(params.Currency),
			},
			ReferenceID:   params.ReferenceID,
			Note:          params.Note,
			DeviceOptions: deviceOptions{DeviceID: params.DeviceID},
		},
	}

	var resp checkoutResponse
	if err := p.client.makeRequest(ctx, http.MethodPost, "/v2/terminals/checkouts", req, &resp); err != nil {
		return nil, err
	}

	return toCheckoutResult(resp.Checkout), nil
}

func (p *Provider) GetTerminalCheckoutStatus(ctx context.Context, checkoutID string) (*base.TerminalCheckoutResult, error) {
	var resp checkoutResponse
	endpoint := "/v2/terminals/checkouts/" + url.PathEscape(checkoutID)
	if err := p.client.makeRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	return toCheckoutResult(resp.Checkout), nil
}

func toCheckoutResult(c TerminalCheckout) *base.TerminalCheckoutResult {
	return &base.TerminalCheckoutResult{
		CheckoutID: c.ID,
		Status:     toCheckoutStatus(c.Status),
		Amount:     base.FromMinorUnits(c.AmountMoney.Amount, c.AmountMoney.Currency),
		Currency:   c.AmountMoney.Currency,
		PaymentIDs: lo.Compact(c.PaymentIDs),
	}
}

func toPaymentStatus(status string) types.PaymentStatus {
	switch status {
	case "COMPLETED":
		return types.PaymentStatusCompleted
	case "CANCELED":
		return types.PaymentStatusCancelled
	case "FAILED":
		return types.PaymentStatusFailed
	default:
		// APPROVED and PENDING
		return types.PaymentStatusPending
	}
}

func toRefundStatus(status string) types.RefundStatus {
	switch status {
	case "COMPLETED":
		return types.RefundStatusCompleted
	case "REJECTED", "FAILED":
		return types.RefundStatusFailed
	default:
		return types.RefundStatusPending
	}
}

func toCheckoutStatus(status string) types.TerminalCheckoutStatus {
	switch status {
	case "COMPLETED":
		return types.TerminalCheckoutStatusCompleted
	case "CANCELED":
		return types.TerminalCheckoutStatusCancelled
	case "IN_PROGRESS", "CANCEL_REQUESTED":
		return types.TerminalCheckoutStatusInProgress
	default:
		return types.TerminalCheckoutStatusPending
	}
}
