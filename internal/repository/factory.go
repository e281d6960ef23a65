package repository

import (
	"github.com/shopbench/shopbench/internal/domain/integration"
	"github.com/shopbench/shopbench/internal/domain/inventory"
	"github.com/shopbench/shopbench/internal/domain/invoice"
	"github.com/shopbench/shopbench/internal/domain/location"
	"github.com/shopbench/shopbench/internal/domain/subscription"
	"github.com/shopbench/shopbench/internal/domain/tenant"
	"github.com/shopbench/shopbench/internal/domain/transfer"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	postgresRepo "github.com/shopbench/shopbench/internal/repository/postgres"
)

func NewTenantRepository(db *postgres.DB, logger *logger.Logger) tenant.Repository {
	return postgresRepo.NewTenantRepository(db, logger)
}

func NewLocationRepository(db *postgres.DB, logger *logger.Logger) location.Repository {
	return postgresRepo.NewLocationRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewInventoryRepository(db *postgres.DB, logger *logger.Logger) inventory.Repository {
	return postgresRepo.NewInventoryRepository(db, logger)
}

func NewTransferRepository(db *postgres.DB, logger *logger.Logger) transfer.Repository {
	return postgresRepo.NewTransferRepository(db, logger)
}

func NewIntegrationRepository(db *postgres.DB, logger *logger.Logger) integration.Repository {
	return postgresRepo.NewIntegrationRepository(db, logger)
}
