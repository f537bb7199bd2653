package handlers

import (
	"net/http"

	"artastic/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SalesHandler struct {
	sales  services.SalesService
	logger *zap.Logger
}

func NewSalesHandler(sales services.SalesService, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{sales: sales, logger: logger}
}

// Report answers GET /api/sales?timeframe=daily|weekly|monthly&metric=revenue|orders.
func (h *SalesHandler) Report(c *gin.Context) {
	report, err := h.sales.Report(c.DefaultQuery("timeframe", "weekly"), c.DefaultQuery("metric", "revenue"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *SalesHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.sales.Dashboard())
}
