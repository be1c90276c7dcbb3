package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// JobRunner exposes the maintenance scheduler to administrators
type JobRunner interface {
	GetStats() map[string]interface{}
	RunNow(name string) error
}

// DashboardHandler handles the admin dashboard, exports and maintenance jobs
type DashboardHandler struct {
	dashboardService services.DashboardService
	reportService    services.ReportService
	jobs             JobRunner
	logger           *logrus.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService services.DashboardService, reportService services.ReportService, jobs JobRunner, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		reportService:    reportService,
		jobs:             jobs,
		logger:           logger,
	}
}

// Metrics returns the dashboard aggregates
// @Summary Dashboard
// @Tags admin
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.DashboardMetrics}
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Metrics(c *gin.Context) {
	metrics, err := h.dashboardService.Metrics(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, metrics)
}

// OrdersCSV exports one row per order line
// @Summary Orders CSV export
// @Tags admin
// @Produce text/csv
// @Param estado query string false "Status filter"
// @Param fechaInicio query string false "From date (YYYY-MM-DD)"
// @Param fechaFin query string false "To date, inclusive (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/reportes/pedidos.csv [get]
func (h *DashboardHandler) OrdersCSV(c *gin.Context) {
	query := services.ReportQuery{
		Status:    c.Query("estado"),
		StartDate: c.Query("fechaInicio"),
		EndDate:   c.Query("fechaFin"),
	}

	// buffered so a failed query still gets a JSON error instead of a truncated file
	var buf bytes.Buffer
	if err := h.reportService.WriteOrdersCSV(c.Request.Context(), query, &buf); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="pedidos.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Jobs returns the scheduler statistics
// @Summary Maintenance jobs
// @Tags admin
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/v1/admin/jobs [get]
func (h *DashboardHandler) Jobs(c *gin.Context) {
	ok(c, h.jobs.GetStats())
}

// RunJob triggers a maintenance job immediately
// @Summary Run maintenance job
// @Tags admin
// @Produce json
// @Param name path string true "Job name"
// @Success 202 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/admin/jobs/{name}/run [post]
func (h *DashboardHandler) RunJob(c *gin.Context) {
	name := c.Param("name")
	if err := h.jobs.RunNow(name); err != nil {
		c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{Success: true, Message: "Job " + name + " iniciado"})
}
