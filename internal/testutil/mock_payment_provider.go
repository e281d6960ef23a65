package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/types"
)

var _ base.PaymentProvider = (*MockPaymentProvider)(nil)

// MockPaymentProvider is a scriptable processor. Every call is recorded and
// answered from the configured result or error of its operation. Unset
// results are synthesized so happy paths need no setup.
type MockPaymentProvider struct {
	mu sync.Mutex

	ProviderName types.PaymentProvider

	TestConnectionErr error

	CustomerResult *base.CustomerResult
	CustomerErr    error

	CardResult *base.CardResult
	CardErr    error

	SubscriptionResult    *base.SubscriptionResult
	CreateSubscriptionErr error
	UpdateSubscriptionErr error

	ChargeResult *base.ChargeResult
	ChargeErr    error

	RefundResult *base.RefundResult
	RefundErr    error

	CheckoutResult    *base.TerminalCheckoutResult
	CheckoutErr       error
	CheckoutStatusErr error
	// CheckoutStatuses is consumed one entry per status poll. The last
	// entry repeats once the list is exhausted.
	CheckoutStatuses []*base.TerminalCheckoutResult

	CreatedCustomers      []*base.CreateCustomerParams
	SavedCards            []*base.SaveCardParams
	CreatedSubscriptions  []*base.CreateSubscriptionParams
	UpdatedSubscriptions  []*base.UpdateSubscriptionParams
	Charges               []*base.ChargeParams
	Refunds               []*base.RefundParams
	TerminalCheckouts     []*base.TerminalCheckoutParams
	CheckoutStatusQueries []string
}

func NewMockPaymentProvider(name types.PaymentProvider) *MockPaymentProvider {
	return &MockPaymentProvider{ProviderName: name}
}

func (m *MockPaymentProvider) Name() types.PaymentProvider {
	return m.ProviderName
}

func (m *MockPaymentProvider) TestConnection(ctx context.Context) error {
	return m.TestConnectionErr
}

func (m *MockPaymentProvider) CreateCustomer(ctx context.Context, params *base.CreateCustomerParams) (*base.CustomerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreatedCustomers = append(m.CreatedCustomers, params)
	if m.CustomerErr != nil {
		return nil, m.CustomerErr
	}
	if m.CustomerResult != nil {
		return m.CustomerResult, nil
	}
	return &base.CustomerResult{CustomerID: fmt.Sprintf("cust_%d", len(m.CreatedCustomers))}, nil
}

func (m *MockPaymentProvider) SaveCardForCustomer(ctx context.Context, params *base.SaveCardParams) (*base.CardResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SavedCards = append(m.SavedCards, params)
	if m.CardErr != nil {
		return nil, m.CardErr
	}
	if m.CardResult != nil {
		return m.CardResult, nil
	}
	return &base.CardResult{CardID: fmt.Sprintf("card_%d", len(m.SavedCards)), Brand: "VISA", Last4: "1111"}, nil
}

func (m *MockPaymentProvider) CreateSubscription(ctx context.Context, params *base.CreateSubscriptionParams) (*base.SubscriptionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreatedSubscriptions = append(m.CreatedSubscriptions, params)
	if m.CreateSubscriptionErr != nil {
		return nil, m.CreateSubscriptionErr
	}
	if m.SubscriptionResult != nil {
		return m.SubscriptionResult, nil
	}
	return &base.SubscriptionResult{
		SubscriptionID: fmt.Sprintf("sub_%d", len(m.CreatedSubscriptions)),
		Status:         "ACTIVE",
	}, nil
}

func (m *MockPaymentProvider) UpdateSubscription(ctx context.Context, params *base.UpdateSubscriptionParams) (*base.SubscriptionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdatedSubscriptions = append(m.UpdatedSubscriptions, params)
	if m.UpdateSubscriptionErr != nil {
		return nil, m.UpdateSubscriptionErr
	}
	return &base.SubscriptionResult{SubscriptionID: params.SubscriptionID, Status: "ACTIVE"}, nil
}

func (m *MockPaymentProvider) Charge(ctx context.Context, params *base.ChargeParams) (*base.ChargeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Charges = append(m.Charges, params)
	if m.ChargeErr != nil {
		return nil, m.ChargeErr
	}
	if m.ChargeResult != nil {
		return m.ChargeResult, nil
	}
	return &base.ChargeResult{
		TransactionID: fmt.Sprintf("pay_%d", len(m.Charges)),
		Status:        types.PaymentStatusCompleted,
		Amount:        params.Amount,
		Currency:      params.Currency,
	}, nil
}

func (m *MockPaymentProvider) Refund(ctx context.Context, params *base.RefundParams) (*base.RefundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Refunds = append(m.Refunds, params)
	if m.RefundErr != nil {
		return nil, m.RefundErr
	}
	if m.RefundResult != nil {
		return m.RefundResult, nil
	}
	return &base.RefundResult{
		RefundID: fmt.Sprintf("refund_%d", len(m.Refunds)),
		Status:   types.RefundStatusCompleted,
		Amount:   params.Amount,
		Currency: params.Currency,
	}, nil
}

func (m *MockPaymentProvider) CreateTerminalCheckout(ctx context.Context, params *base.TerminalCheckoutParams) (*base.TerminalCheckoutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TerminalCheckouts = append(m.TerminalCheckouts, params)
	if m.CheckoutErr != nil {
		return nil, m.CheckoutErr
	}
	if m.CheckoutResult != nil {
		return m.CheckoutResult, nil
	}
	return &base.TerminalCheckoutResult{
		CheckoutID: fmt.Sprintf("checkout_%d", len(m.TerminalCheckouts)),
		Status:     types.TerminalCheckoutStatusPending,
		Amount:     params.Amount,
		Currency:   params.Currency,
	}, nil
}

func (m *MockPaymentProvider) GetTerminalCheckoutStatus(ctx context.Context, checkoutID string) (*base.TerminalCheckoutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CheckoutStatusQueries = append(m.CheckoutStatusQueries, checkoutID)
	if m.CheckoutStatusErr != nil {
		return nil, m.CheckoutStatusErr
	}
	if len(m.CheckoutStatuses) == 0 {
		return &base.TerminalCheckoutResult{
			CheckoutID: checkoutID,
			Status:     types.TerminalCheckoutStatusPending,
		}, nil
	}

	next := m.CheckoutStatuses[0]
	if len(m.CheckoutStatuses) > 1 {
		m.CheckoutStatuses = m.CheckoutStatuses[1:]
	}
	return next, nil
}
