package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/service"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, logger: logger}
}

// @Summary Get an invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := pathID(c, "id", "Invoice ID is required")
	if !ok {
		return
	}

	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
