package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/api"
	"github.com/shopbench/shopbench/internal/api/cron"
	v1 "github.com/shopbench/shopbench/internal/api/v1"
	"github.com/shopbench/shopbench/internal/auth"
	"github.com/shopbench/shopbench/internal/cache"
	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/email"
	"github.com/shopbench/shopbench/internal/httpclient"
	"github.com/shopbench/shopbench/internal/integration"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
	"github.com/shopbench/shopbench/internal/repository"
	"github.com/shopbench/shopbench/internal/scheduler"
	"github.com/shopbench/shopbench/internal/security"
	"github.com/shopbench/shopbench/internal/service"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/shopbench/shopbench/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Postgres
			postgres.NewDB,
			provideDBClient,

			// Cache
			cache.NewInMemoryCache,

			// HTTP Client
			httpclient.NewClientConfig,
			httpclient.NewDefaultClient,

			// Security
			security.NewEncryptionService,
			auth.NewProvider,

			// Email
			email.NewClient,
			email.NewNotifier,

			// Repositories
			repository.NewTenantRepository,
			repository.NewLocationRepository,
			repository.NewSubscriptionRepository,
			repository.NewInvoiceRepository,
			repository.NewInventoryRepository,
			repository.NewTransferRepository,
			repository.NewIntegrationRepository,

			// Payment providers
			integration.NewFactory,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewBillingService,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewWebhookService,
			service.NewInventoryTransferService,
			service.NewIntegrationService,
		),
	)

	// API and scheduler
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
			provideBillingScheduler,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideDBClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideHandlers(
	db *postgres.DB,
	logger *logger.Logger,
	billingService service.BillingService,
	paymentService service.PaymentService,
	webhookService service.WebhookService,
	transferService service.InventoryTransferService,
	invoiceService service.InvoiceService,
	integrationService service.IntegrationService,
) api.Handlers {
	return api.Handlers{
		Health:            v1.NewHealthHandler(db, logger),
		Billing:           v1.NewBillingHandler(billingService, logger),
		Payment:           v1.NewPaymentHandler(paymentService, logger),
		Webhook:           v1.NewWebhookHandler(webhookService, logger),
		InventoryTransfer: v1.NewInventoryTransferHandler(transferService, logger),
		Invoice:           v1.NewInvoiceHandler(invoiceService, logger),
		Integration:       v1.NewIntegrationHandler(integrationService, logger),
		CronBilling:       cron.NewBillingHandler(billingService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger, authProvider auth.Provider) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger, authProvider)
}

func provideBillingScheduler(cfg *config.Configuration, billingService service.BillingService, logger *logger.Logger) (*scheduler.BillingScheduler, error) {
	return scheduler.NewBillingScheduler(cfg, billingService, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	billingScheduler *scheduler.BillingScheduler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		billingScheduler.RegisterWithLifecycle(lc, cfg)
	case types.ModeAPI:
		// billing is triggered externally through /cron/billing/monthly
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
