package service

import (
	"github.com/shopbench/shopbench/internal/config"
	domainIntegration "github.com/shopbench/shopbench/internal/domain/integration"
	"github.com/shopbench/shopbench/internal/domain/inventory"
	"github.com/shopbench/shopbench/internal/domain/invoice"
	"github.com/shopbench/shopbench/internal/domain/location"
	"github.com/shopbench/shopbench/internal/domain/subscription"
	"github.com/shopbench/shopbench/internal/domain/tenant"
	"github.com/shopbench/shopbench/internal/domain/transfer"
	"github.com/shopbench/shopbench/internal/email"
	"github.com/shopbench/shopbench/internal/idempotency"
	"github.com/shopbench/shopbench/internal/integration"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	"github.com/shopbench/shopbench/internal/security"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	TenantRepo      tenant.Repository
	LocationRepo    location.Repository
	SubRepo         subscription.Repository
	InvoiceRepo     invoice.Repository
	InventoryRepo   inventory.Repository
	TransferRepo    transfer.Repository
	IntegrationRepo domainIntegration.Repository

	IntegrationFactory *integration.Factory
	EncryptionService  security.EncryptionService
	Notifier           email.Notifier
	IdempotencyKeys    *idempotency.Generator
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	tenantRepo tenant.Repository,
	locationRepo location.Repository,
	subRepo subscription.Repository,
	invoiceRepo invoice.Repository,
	inventoryRepo inventory.Repository,
	transferRepo transfer.Repository,
	integrationRepo domainIntegration.Repository,
	integrationFactory *integration.Factory,
	encryptionService security.EncryptionService,
	notifier email.Notifier,
) ServiceParams {
	return ServiceParams{
		Logger:             logger,
		Config:             config,
		DB:                 db,
		TenantRepo:         tenantRepo,
		LocationRepo:       locationRepo,
		SubRepo:            subRepo,
		InvoiceRepo:        invoiceRepo,
		InventoryRepo:      inventoryRepo,
		TransferRepo:       transferRepo,
		IntegrationRepo:    integrationRepo,
		IntegrationFactory: integrationFactory,
		EncryptionService:  encryptionService,
		Notifier:           notifier,
		IdempotencyKeys:    idempotency.NewGenerator(),
	}
}
