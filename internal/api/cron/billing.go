package cron

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/service"
)

// BillingHandler exposes the monthly billing run to an external scheduler
type BillingHandler struct {
	billingService service.BillingService
	logger         *logger.Logger
}

func NewBillingHandler(billingService service.BillingService, logger *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// ProcessMonthlyBilling runs the same pass as the in-process scheduler.
// Safe to call repeatedly; already billed periods are skipped.
func (h *BillingHandler) ProcessMonthlyBilling(c *gin.Context) {
	h.logger.Infow("starting monthly billing cron job")

	response, err := h.billingService.ProcessMonthlyBilling(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to process monthly billing",
			"error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed monthly billing cron job",
		"skipped", response.Skipped,
		"processed", response.Processed,
		"failed", response.Failed)
	c.JSON(http.StatusOK, response)
}
