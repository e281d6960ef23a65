package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/service"
	"github.com/shopbench/shopbench/internal/types"
)

type BillingHandler struct {
	service service.BillingService
	log     *logger.Logger
}

func NewBillingHandler(service service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{service: service, log: log}
}

// @Summary Get the monthly amount
// @Description Location based monthly charge of the current shop
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MonthlyAmountResponse
// @Router /billing/amount [get]
func (h *BillingHandler) GetMonthlyAmount(c *gin.Context) {
	resp, err := h.service.CalculateMonthlyAmount(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get the subscription
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /billing/subscription [get]
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	resp, err := h.service.GetSubscription(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Create or update the subscription
// @Description Saves the card behind payment_token and starts, or re-cards, the processor subscription
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSubscriptionRequest true "Card token"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /billing/subscription [post]
func (h *BillingHandler) CreateOrUpdateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateOrUpdateSubscription(c.Request.Context(), &req)
	if err != nil {
		h.log.Errorw("failed to create or update subscription",
			"tenant_id", types.GetTenantID(c.Request.Context()),
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Enable autopay
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSubscriptionRequest true "Card token"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /billing/autopay/enable [post]
func (h *BillingHandler) EnableAutopay(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.EnableAutopay(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Disable autopay
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubscriptionResponse
// @Router /billing/autopay/disable [post]
func (h *BillingHandler) DisableAutopay(c *gin.Context) {
	resp, err := h.service.DisableAutopay(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Toggle location billing
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Param request body dto.ToggleLocationBillingRequest true "Free flag"
// @Success 200 {object} dto.ToggleLocationBillingResponse
// @Router /billing/locations/{id} [put]
func (h *BillingHandler) ToggleLocationBilling(c *gin.Context) {
	id, ok := pathID(c, "id", "Location ID is required")
	if !ok {
		return
	}

	var req dto.ToggleLocationBillingRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.ToggleLocationBilling(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Billing history
// @Description Subscription payments of the current shop, newest period first
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param filter query types.BillingHistoryFilter false "Filter"
// @Success 200 {object} dto.ListSubscriptionPaymentsResponse
// @Router /billing/history [get]
func (h *BillingHandler) GetBillingHistory(c *gin.Context) {
	filter := types.NewBillingHistoryFilter()
	if !bindQuery(c, filter) {
		return
	}

	resp, err := h.service.GetBillingHistory(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
