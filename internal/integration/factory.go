package integration

import (
	"context"

	"github.com/shopbench/shopbench/internal/cache"
	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/domain/integration"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/httpclient"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/integration/square"
	"github.com/shopbench/shopbench/internal/integration/stripe"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/security"
	"github.com/shopbench/shopbench/internal/types"
)

// ProviderBuilder builds a payment provider from decrypted credentials
type ProviderBuilder func(creds *integration.Credentials) (base.PaymentProvider, error)

// ResolvedProvider is a tenant's payment integration together with the
// provider built for it
type ResolvedProvider struct {
	Provider    base.PaymentProvider
	Integration *integration.Integration
}

// Factory resolves a tenant's payment integration to a provider variant.
// The variant is picked once from the stored provider name and cached per
// tenant, so calls never re-dispatch on the string.
type Factory struct {
	config            *config.Configuration
	logger            *logger.Logger
	integrationRepo   integration.Repository
	encryptionService security.EncryptionService
	cache             cache.Cache

	builders map[types.PaymentProvider]ProviderBuilder
	parsers  map[types.PaymentProvider]base.WebhookParser
}

// NewFactory creates a new integration factory with the square and stripe variants registered
func NewFactory(
	config *config.Configuration,
	logger *logger.Logger,
	integrationRepo integration.Repository,
	encryptionService security.EncryptionService,
	httpClient httpclient.Client,
	cache cache.Cache,
) *Factory {
	f := &Factory{
		config:            config,
		logger:            logger,
		integrationRepo:   integrationRepo,
		encryptionService: encryptionService,
		cache:             cache,
		builders:          make(map[types.PaymentProvider]ProviderBuilder),
		parsers:           make(map[types.PaymentProvider]base.WebhookParser),
	}

	f.RegisterProvider(types.PaymentProviderSquare, func(creds *integration.Credentials) (base.PaymentProvider, error) {
		client, err := square.NewClient(httpClient, config.Payment, creds, logger)
		if err != nil {
			return nil, err
		}
		return square.NewProvider(client), nil
	}, square.ParseWebhook)

	f.RegisterProvider(types.PaymentProviderStripe, func(creds *integration.Credentials) (base.PaymentProvider, error) {
		client, err := stripe.NewClient(creds, logger)
		if err != nil {
			return nil, err
		}
		return stripe.NewProvider(client), nil
	}, stripe.ParseWebhook)

	return f
}

// RegisterProvider adds or replaces a provider variant
func (f *Factory) RegisterProvider(name types.PaymentProvider, builder ProviderBuilder, parser base.WebhookParser) {
	f.builders[name] = builder
	if parser != nil {
		f.parsers[name] = parser
	}
}

// GetPaymentIntegration returns the tenant's enabled payment integration
func (f *Factory) GetPaymentIntegration(ctx context.Context) (*integration.Integration, error) {
	conn, err := f.integrationRepo.Get(ctx, types.IntegrationTypePayment)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("payment integration not configured").
				WithHint("Payment processing is not configured. Connect a payment provider in settings").
				Mark(ierr.ErrConfiguration)
		}
		return nil, err
	}

	if !conn.Enabled {
		return nil, ierr.NewError("payment integration disabled").
			WithHint("Payment processing is disabled. Enable the payment integration in settings").
			Mark(ierr.ErrConfiguration)
	}

	return conn, nil
}

// GetPaymentProvider resolves the tenant's payment provider, building it on
// first use and caching it until the integration changes
func (f *Factory) GetPaymentProvider(ctx context.Context) (*ResolvedProvider, error) {
	return cache.GetOrLoad(ctx, f.cache, cache.TenantKey(ctx, cache.PrefixPaymentProvider), f.resolvePaymentProvider)
}

func (f *Factory) resolvePaymentProvider(ctx context.Context) (*ResolvedProvider, error) {
	conn, err := f.GetPaymentIntegration(ctx)
	if err != nil {
		return nil, err
	}

	var creds integration.Credentials
	if err := f.encryptionService.DecryptJSON(conn.EncryptedCredentials, &creds); err != nil {
		f.logger.Errorw("failed to decrypt payment credentials",
			"integration_id", conn.ID,
			"provider", conn.Provider,
			"error", err)
		return nil, ierr.WithError(err).
			WithHint("Stored payment credentials could not be read. Please reconnect the payment provider").
			Mark(ierr.ErrConfiguration)
	}

	provider, err := f.BuildPaymentProvider(types.PaymentProvider(conn.Provider), &creds)
	if err != nil {
		return nil, err
	}

	f.logger.Debugw("resolved payment provider",
		"tenant_id", types.GetTenantID(ctx),
		"provider", conn.Provider)

	return &ResolvedProvider{Provider: provider, Integration: conn}, nil
}

// BuildPaymentProvider builds a provider without touching the cache
func (f *Factory) BuildPaymentProvider(name types.PaymentProvider, creds *integration.Credentials) (base.PaymentProvider, error) {
	builder, ok := f.builders[name]
	if !ok {
		return nil, ierr.NewErrorf("unsupported payment provider %q", name).
			WithHint("Supported payment providers are square and stripe").
			Mark(ierr.ErrConfiguration)
	}
	return builder(creds)
}

// InvalidatePaymentProvider drops the cached provider of the current tenant
func (f *Factory) InvalidatePaymentProvider(ctx context.Context) {
	f.cache.Delete(ctx, cache.TenantKey(ctx, cache.PrefixPaymentProvider))
}

// GetWebhookParser returns the payload parser of a provider. Webhooks arrive
// before any tenant is known, so parsing needs no credentials.
func (f *Factory) GetWebhookParser(name types.PaymentProvider) (base.WebhookParser, error) {
	parser, ok := f.parsers[name]
	if !ok {
		return nil, ierr.NewErrorf("unsupported webhook provider %q", name).
			WithHint("Supported payment providers are square and stripe").
			Mark(ierr.ErrValidation)
	}
	return parser, nil
}
