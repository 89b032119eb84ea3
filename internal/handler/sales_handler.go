package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/service"
	"loyaltydesk/backoffice/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SalesHandler struct {
	salesService service.SalesService
	logger       *zap.Logger
}

func NewSalesHandler(salesService service.SalesService, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{salesService: salesService, logger: logger}
}

// Daily returns the chart series for every day of [start, end].
func (h *SalesHandler) Daily(c *gin.Context) {
	days, err := h.salesService.DailySales(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to load sales")
		return
	}
	response.Success(c, newSalesSeries(days))
}

func (h *SalesHandler) Export(c *gin.Context) {
	filename, content, err := h.salesService.ExportXLSX(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		writeServiceError(c, h.logger, err, "failed to export sales")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}
