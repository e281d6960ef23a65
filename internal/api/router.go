package api

import (
	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/api/cron"
	v1 "github.com/shopbench/shopbench/internal/api/v1"
	"github.com/shopbench/shopbench/internal/auth"
	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/rest/middleware"
	"github.com/shopbench/shopbench/internal/types"
)

type Handlers struct {
	Health            *v1.HealthHandler
	Billing           *v1.BillingHandler
	Payment           *v1.PaymentHandler
	Webhook           *v1.WebhookHandler
	InventoryTransfer *v1.InventoryTransferHandler
	Invoice           *v1.InvoiceHandler
	Integration       *v1.IntegrationHandler
	CronBilling       *cron.BillingHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, authProvider auth.Provider) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware(logger),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	public := router.Group("/v1")
	private := router.Group("/v1", middleware.AuthenticateMiddleware(authProvider, logger))

	// processors call back without credentials
	public.POST("/payments/webhook/:provider", handlers.Webhook.HandleWebhook)

	billing := private.Group("/billing")
	{
		billing.GET("/amount", handlers.Billing.GetMonthlyAmount)
		billing.GET("/subscription", handlers.Billing.GetSubscription)
		billing.POST("/subscription", handlers.Billing.CreateOrUpdateSubscription)
		billing.POST("/autopay/enable", handlers.Billing.EnableAutopay)
		billing.POST("/autopay/disable", handlers.Billing.DisableAutopay)
		billing.PUT("/locations/:id", handlers.Billing.ToggleLocationBilling)
		billing.GET("/history", handlers.Billing.GetBillingHistory)
	}

	payments := private.Group("/payments")
	{
		payments.GET("/config", handlers.Payment.GetPaymentConfig)
		payments.POST("/invoices/:id/pay", handlers.Payment.PayInvoice)
		payments.POST("/invoices/:id/refund", handlers.Payment.RefundPayment)
		payments.POST("/terminal/checkouts", handlers.Payment.CreateTerminalCheckout)
		payments.GET("/terminal/checkouts/:id", handlers.Payment.GetTerminalCheckout)
	}

	transfers := private.Group("/inventory/transfers")
	{
		transfers.GET("", handlers.InventoryTransfer.ListTransfers)
		transfers.GET("/:id", handlers.InventoryTransfer.GetTransfer)
		transfers.POST("", handlers.InventoryTransfer.CreateTransfer)
		transfers.POST("/:id/complete", handlers.InventoryTransfer.CompleteTransfer)
		transfers.POST("/:id/cancel", handlers.InventoryTransfer.CancelTransfer)
	}

	invoices := private.Group("/invoices")
	{
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
	}

	integrations := private.Group("/integrations")
	{
		integrations.GET("/:type", handlers.Integration.GetIntegration)
		integrations.PUT("/:type", handlers.Integration.UpsertIntegration)
		integrations.POST("/:type/test", handlers.Integration.TestConnection)
	}

	cronGroup := router.Group("/cron", middleware.CronSecretMiddleware(cfg, logger))
	{
		cronGroup.POST("/billing/monthly", handlers.CronBilling.ProcessMonthlyBilling)
	}

	return router
}
