package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/service"
	"github.com/shopbench/shopbench/internal/types"
)

type IntegrationHandler struct {
	service service.IntegrationService
	log     *logger.Logger
}

func NewIntegrationHandler(service service.IntegrationService, log *logger.Logger) *IntegrationHandler {
	return &IntegrationHandler{service: service, log: log}
}

// @Summary Get an integration
// @Description Credentials are never returned
// @Tags Integrations
// @Produce json
// @Security BearerAuth
// @Param type path string true "Integration type" Enums(payment, email)
// @Success 200 {object} dto.IntegrationResponse
// @Router /integrations/{type} [get]
func (h *IntegrationHandler) GetIntegration(c *gin.Context) {
	integrationType := types.IntegrationType(c.Param("type"))

	resp, err := h.service.GetIntegration(c.Request.Context(), integrationType)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Create or replace an integration
// @Tags Integrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "Integration type" Enums(payment, email)
// @Param request body dto.UpsertIntegrationRequest true "Integration"
// @Success 200 {object} dto.IntegrationResponse
// @Router /integrations/{type} [put]
func (h *IntegrationHandler) UpsertIntegration(c *gin.Context) {
	integrationType := types.IntegrationType(c.Param("type"))

	var req dto.UpsertIntegrationRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpsertIntegration(c.Request.Context(), integrationType, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Test an integration's credentials
// @Tags Integrations
// @Produce json
// @Security BearerAuth
// @Param type path string true "Integration type" Enums(payment)
// @Success 200 {object} dto.TestConnectionResponse
// @Router /integrations/{type}/test [post]
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	integrationType := types.IntegrationType(c.Param("type"))

	resp, err := h.service.TestConnection(c.Request.Context(), integrationType)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
