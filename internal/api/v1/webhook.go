package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/api/dto"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/service"
	"github.com/shopbench/shopbench/internal/types"
	"github.com/sourcegraph/conc/panics"
)

// maxWebhookBody caps the payload read from a processor callback
const maxWebhookBody = 1 << 20

const webhookFailed = "Webhook processing failed"

// WebhookHandler receives processor callbacks
type WebhookHandler struct {
	service service.WebhookService
	logger  *logger.Logger
}

func NewWebhookHandler(service service.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

// @Summary Handle a payment processor webhook
// @Description Unauthenticated. Always answers 200 so the processor does not retry on internal failures.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Payment provider" Enums(square, stripe)
// @Success 200 {object} dto.WebhookResponse
// @Router /payments/webhook/{provider} [post]
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	provider := types.PaymentProvider(c.Param("provider"))

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.Errorw("failed to read webhook body",
			"provider", provider,
			"error", err)
		c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Error: "Could not read payload"})
		return
	}

	var catcher panics.Catcher
	catcher.Try(func() {
		_, err = h.service.HandleWebhook(c.Request.Context(), provider, payload)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		h.logger.Errorw("panic while handling webhook",
			"provider", provider,
			"panic", recovered.Value,
			"stack", string(recovered.Stack))
		c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Error: webhookFailed})
		return
	}
	if err != nil {
		c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Error: webhookErrorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}

func webhookErrorMessage(err error) string {
	if msg := ierr.DisplayMessage(err); msg != "" {
		return msg
	}
	return webhookFailed
}
