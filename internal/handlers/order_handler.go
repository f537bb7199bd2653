package handlers

import (
	"net/http"

	"artastic/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders services.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders services.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// List answers GET /api/orders?filter=&q=.
func (h *OrderHandler) List(c *gin.Context) {
	filter, err := services.ParseOrderFilter(c.Query("filter"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.orders.List(filter, c.Query("q")))
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orders.Get(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Preview(c *gin.Context) {
	var req services.DraftRequest
	if !bindJSON(c, &req) {
		return
	}
	preview, err := h.orders.Preview(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req services.DraftRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req services.DraftRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ToggleStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orders.ToggleStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) QuickSale(c *gin.Context) {
	var req services.QuickSaleRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.orders.QuickSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
