package types

import (
	"github.com/samber/lo"
	ierr "github.com/shopbench/shopbench/internal/errors"
)

// IntegrationType is the capability a tenant integration provides
type IntegrationType string

const (
	IntegrationTypePayment IntegrationType = "payment"
	IntegrationTypeEmail   IntegrationType = "email"
)

func (t IntegrationType) String() string {
	return string(t)
}

func (t IntegrationType) Validate() error {
	allowed := []IntegrationType{
		IntegrationTypePayment,
		IntegrationTypeEmail,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid integration type").
			WithHint("Please provide a valid integration type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentProvider names a payment processor variant
type PaymentProvider string

const (
	PaymentProviderSquare PaymentProvider = "square"
	PaymentProviderStripe PaymentProvider = "stripe"
)

func (p PaymentProvider) String() string {
	return string(p)
}

func (p PaymentProvider) Validate() error {
	allowed := []PaymentProvider{
		PaymentProviderSquare,
		PaymentProviderStripe,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid payment provider").
			WithHint("Supported payment providers are square and stripe").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProcessorEnvironment selects the processor's sandbox or live API
type ProcessorEnvironment string

const (
	ProcessorEnvironmentSandbox    ProcessorEnvironment = "sandbox"
	ProcessorEnvironmentProduction ProcessorEnvironment = "production"
)

// Keys understood in an integration's settings map
const (
	IntegrationSettingCurrency           = "currency"
	IntegrationSettingSubscriptionPlanID = "subscription_plan_id"
	IntegrationSettingDeviceID           = "device_id"
)
