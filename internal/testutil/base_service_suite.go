package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopbench/shopbench/internal/cache"
	"github.com/shopbench/shopbench/internal/config"
	domainIntegration "github.com/shopbench/shopbench/internal/domain/integration"
	"github.com/shopbench/shopbench/internal/domain/inventory"
	"github.com/shopbench/shopbench/internal/domain/invoice"
	"github.com/shopbench/shopbench/internal/domain/location"
	"github.com/shopbench/shopbench/internal/domain/subscription"
	"github.com/shopbench/shopbench/internal/domain/tenant"
	"github.com/shopbench/shopbench/internal/email"
	"github.com/shopbench/shopbench/internal/integration"
	"github.com/shopbench/shopbench/internal/integration/base"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/security"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopbench/shopbench/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories used by service tests
type Stores struct {
	TenantRepo      *InMemoryTenantStore
	LocationRepo    *InMemoryLocationStore
	SubRepo         *InMemorySubscriptionStore
	InvoiceRepo     *InMemoryInvoiceStore
	InventoryRepo   *InMemoryInventoryStore
	TransferRepo    *InMemoryTransferStore
	IntegrationRepo *InMemoryIntegrationStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx                context.Context
	stores             Stores
	db                 *MockPostgresClient
	logger             *logger.Logger
	config             *config.Configuration
	cache              cache.Cache
	encryption         security.EncryptionService
	integrationFactory *integration.Factory
	provider           *MockPaymentProvider
	emailSender        *MockEmailSender
	notifier           email.Notifier
	now                time.Time
	locations          int
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNoopLogger()

	var err error
	s.encryption, err = security.NewEncryptionService(s.config, s.logger)
	if err != nil {
		s.T().Fatalf("failed to create encryption service: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.now = time.Now().UTC()
	s.locations = 0
	s.setupStores()
	s.setupIntegrations()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		TenantRepo:      NewInMemoryTenantStore(),
		LocationRepo:    NewInMemoryLocationStore(),
		SubRepo:         NewInMemorySubscriptionStore(),
		InvoiceRepo:     NewInMemoryInvoiceStore(),
		InventoryRepo:   NewInMemoryInventoryStore(),
		TransferRepo:    NewInMemoryTransferStore(),
		IntegrationRepo: NewInMemoryIntegrationStore(),
	}
	s.db = NewMockPostgresClient(s.logger)
}

// setupIntegrations builds a factory whose square variant is the mock provider
func (s *BaseServiceTestSuite) setupIntegrations() {
	s.cache = cache.NewInMemoryCache(s.config)
	s.provider = NewMockPaymentProvider(types.PaymentProviderSquare)
	s.integrationFactory = integration.NewFactory(
		s.config,
		s.logger,
		s.stores.IntegrationRepo,
		s.encryption,
		NewMockHTTPClient(),
		s.cache,
	)
	s.integrationFactory.RegisterProvider(types.PaymentProviderSquare, func(_ *domainIntegration.Credentials) (base.PaymentProvider, error) {
		return s.provider, nil
	}, nil)

	s.emailSender = NewMockEmailSender()
	s.notifier = email.NewNotifierWithSender(s.emailSender, s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.TenantRepo.Clear()
	s.stores.LocationRepo.Clear()
	s.stores.SubRepo.Clear()
	s.stores.InvoiceRepo.Clear()
	s.stores.InventoryRepo.Clear()
	s.stores.TransferRepo.Clear()
	s.stores.IntegrationRepo.Clear()
	s.emailSender.Clear()
}

// ClearStores clears all stores
func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetEncryptionService() security.EncryptionService {
	return s.encryption
}

func (s *BaseServiceTestSuite) GetIntegrationFactory() *integration.Factory {
	return s.integrationFactory
}

// GetPaymentProvider returns the mock processor every square integration resolves to
func (s *BaseServiceTestSuite) GetPaymentProvider() *MockPaymentProvider {
	return s.provider
}

func (s *BaseServiceTestSuite) GetEmailSender() *MockEmailSender {
	return s.emailSender
}

func (s *BaseServiceTestSuite) GetNotifier() email.Notifier {
	return s.notifier
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}

// CreateTenant stores a tenant with the default id and a billing email
func (s *BaseServiceTestSuite) CreateTenant(name string) *tenant.Tenant {
	t := &tenant.Tenant{
		ID:           types.GetTenantID(s.ctx),
		Name:         name,
		BillingEmail: lo.ToPtr("billing@example.com"),
		Status:       types.StatusPublished,
		CreatedAt:    s.now,
		UpdatedAt:    s.now,
	}
	s.NoError(s.stores.TenantRepo.Create(s.ctx, t))
	return t
}

// CreateLocation stores a location of the tenant in ctx. Locations are
// created one second apart so the first one is stable.
func (s *BaseServiceTestSuite) CreateLocation(ctx context.Context, name string, isFree bool) *location.Location {
	l := &location.Location{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LOCATION),
		Name:      name,
		IsFree:    isFree,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	l.CreatedAt = s.now.Add(time.Duration(s.locations) * time.Second)
	s.locations++
	s.NoError(s.stores.LocationRepo.Create(ctx, l))
	return l
}

// CreateInventoryItem stores an item and seeds its stock per location
func (s *BaseServiceTestSuite) CreateInventoryItem(ctx context.Context, sku string, stock map[string]int) *inventory.Item {
	item := &inventory.Item{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVENTORY_ITEM),
		SKU:       lo.ToPtr(sku),
		Name:      sku,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.stores.InventoryRepo.CreateItem(ctx, item))
	for locationID, qty := range stock {
		s.stores.InventoryRepo.SetQuantity(ctx, item.ID, locationID, qty)
	}
	return item
}

// CreateInvoice stores an issued invoice of the tenant in ctx
func (s *BaseServiceTestSuite) CreateInvoice(ctx context.Context, total decimal.Decimal, mutate func(inv *invoice.Invoice)) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber:  lo.ToPtr("INV-" + types.GenerateUUID()[:8]),
		InvoiceStatus:  types.InvoiceStatusIssued,
		TotalAmount:    total,
		Currency:       "USD",
		RefundedAmount: decimal.Zero,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if mutate != nil {
		mutate(inv)
	}
	s.NoError(s.stores.InvoiceRepo.Create(ctx, inv))
	return inv
}

// ConfigurePaymentIntegration stores an enabled square integration with
// encrypted credentials for the tenant in ctx
func (s *BaseServiceTestSuite) ConfigurePaymentIntegration(ctx context.Context, settings map[string]string) *domainIntegration.Integration {
	encrypted, err := s.encryption.EncryptJSON(&domainIntegration.Credentials{
		AccessToken: "sq-test-token",
		LocationID:  "L-TEST",
		Environment: types.ProcessorEnvironmentSandbox,
	})
	s.Require().NoError(err)

	conn := &domainIntegration.Integration{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INTEGRATION),
		Type:                 types.IntegrationTypePayment,
		Provider:             string(types.PaymentProviderSquare),
		Enabled:              true,
		EncryptedCredentials: encrypted,
		Settings:             types.Metadata(settings),
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
	if conn.Settings == nil {
		conn.Settings = types.Metadata{}
	}
	s.Require().NoError(s.stores.IntegrationRepo.Upsert(ctx, conn))
	s.integrationFactory.InvalidatePaymentProvider(ctx)
	return conn
}

// CreateSubscription stores a subscription for the tenant in ctx
func (s *BaseServiceTestSuite) CreateSubscription(ctx context.Context, mutate func(sub *subscription.Subscription)) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		Provider:           types.PaymentProviderSquare,
		SubscriptionStatus: types.SubscriptionStatusActive,
		MonthlyAmount:      decimal.Zero,
		Currency:           "USD",
		BillingDay:         s.config.Billing.BillingDay,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if mutate != nil {
		mutate(sub)
	}
	s.NoError(s.stores.SubRepo.Create(ctx, sub))
	return sub
}
