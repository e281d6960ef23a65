package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/service"
	"github.com/shopbench/shopbench/internal/types"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

// @Summary Payment configuration
// @Description Whether card payments are configured for the shop, with its provider and currency
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.PaymentConfigResponse
// @Router /payments/config [get]
func (h *PaymentHandler) GetPaymentConfig(c *gin.Context) {
	resp, err := h.service.GetPaymentConfig(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Pay an invoice
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body dto.PayInvoiceRequest true "Card source"
// @Success 200 {object} dto.PayInvoiceResponse
// @Router /payments/invoices/{id}/pay [post]
func (h *PaymentHandler) PayInvoice(c *gin.Context) {
	id, ok := pathID(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	var req dto.PayInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.PayInvoice(c.Request.Context(), id, &req)
	if err != nil {
		h.log.Errorw("failed to pay invoice",
			"tenant_id", types.GetTenantID(c.Request.Context()),
			"invoice_id", id,
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Refund an invoice payment
// @Description Refunds all or part of a paid invoice. Omit amount to refund the remainder.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body dto.RefundPaymentRequest false "Refund"
// @Success 200 {object} dto.RefundResponse
// @Router /payments/invoices/{id}/refund [post]
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	id, ok := pathID(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	var req dto.RefundPaymentRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.RefundPayment(c.Request.Context(), id, &req)
	if err != nil {
		h.log.Errorw("failed to refund invoice",
			"tenant_id", types.GetTenantID(c.Request.Context()),
			"invoice_id", id,
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Start a terminal checkout
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTerminalCheckoutRequest true "Checkout"
// @Success 201 {object} dto.TerminalCheckoutResponse
// @Router /payments/terminal/checkouts [post]
func (h *PaymentHandler) CreateTerminalCheckout(c *gin.Context) {
	var req dto.CreateTerminalCheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateTerminalCheckout(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Terminal checkout status
// @Description With wait=true the request blocks until the checkout settles or the poll timeout passes
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Param wait query bool false "Wait for a final status"
// @Success 200 {object} dto.TerminalCheckoutResponse
// @Router /payments/terminal/checkouts/{id} [get]
func (h *PaymentHandler) GetTerminalCheckout(c *gin.Context) {
	id, ok := pathID(c, "id", "Checkout ID is required")
	if !ok {
		return
	}

	wait, _ := strconv.ParseBool(c.Query("wait"))

	var (
		resp *dto.TerminalCheckoutResponse
		err  error
	)
	if wait {
		resp, err = h.service.WaitForTerminalCheckout(c.Request.Context(), id)
	} else {
		resp, err = h.service.GetTerminalCheckoutStatus(c.Request.Context(), id)
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
