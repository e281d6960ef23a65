package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/service"
	"github.com/shopbench/shopbench/internal/types"
)

type InventoryTransferHandler struct {
	service service.InventoryTransferService
	log     *logger.Logger
}

func NewInventoryTransferHandler(service service.InventoryTransferService, log *logger.Logger) *InventoryTransferHandler {
	return &InventoryTransferHandler{service: service, log: log}
}

// @Summary List inventory transfers
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param filter query types.InventoryTransferFilter false "Filter"
// @Success 200 {object} dto.ListInventoryTransfersResponse
// @Router /inventory/transfers [get]
func (h *InventoryTransferHandler) ListTransfers(c *gin.Context) {
	filter := types.NewInventoryTransferFilter()
	if !bindQuery(c, filter) {
		return
	}

	resp, err := h.service.FindAll(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get an inventory transfer
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transfer ID"
// @Success 200 {object} dto.InventoryTransferResponse
// @Router /inventory/transfers/{id} [get]
func (h *InventoryTransferHandler) GetTransfer(c *gin.Context) {
	id, ok := pathID(c, "id", "Transfer ID is required")
	if !ok {
		return
	}

	resp, err := h.service.FindByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Create an inventory transfer
// @Description Reserves the quantity at the source location
// @Tags Inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateInventoryTransferRequest true "Transfer"
// @Success 201 {object} dto.InventoryTransferResponse
// @Router /inventory/transfers [post]
func (h *InventoryTransferHandler) CreateTransfer(c *gin.Context) {
	var req dto.CreateInventoryTransferRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Complete an inventory transfer
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transfer ID"
// @Success 200 {object} dto.InventoryTransferResponse
// @Router /inventory/transfers/{id}/complete [post]
func (h *InventoryTransferHandler) CompleteTransfer(c *gin.Context) {
	id, ok := pathID(c, "id", "Transfer ID is required")
	if !ok {
		return
	}

	resp, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel an inventory transfer
// @Description Returns the reserved quantity to the source location
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transfer ID"
// @Success 200 {object} dto.InventoryTransferResponse
// @Router /inventory/transfers/{id}/cancel [post]
func (h *InventoryTransferHandler) CancelTransfer(c *gin.Context) {
	id, ok := pathID(c, "id", "Transfer ID is required")
	if !ok {
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
