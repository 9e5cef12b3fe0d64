package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/service"
)

// ReportHandler handles HTTP requests for the reporting surface.
type ReportHandler struct {
	revenueService *service.RevenueService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(revenueService *service.RevenueService) *ReportHandler {
	return &ReportHandler{revenueService: revenueService}
}

// DriverReport handles GET /v1/reports/drivers/:id?date=YYYY-MM-DD
func (h *ReportHandler) DriverReport(c *gin.Context) {
	report, err := h.revenueService.DriverDayReport(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, report)
}

// RevenueReport handles GET /v1/reports/revenue?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *ReportHandler) RevenueReport(c *gin.Context) {
	snapshot, err := h.revenueService.ComputeDistribution(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, snapshot)
}
