package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// PointsHandler handles the loyalty ledger
type PointsHandler struct {
	pointsService services.PointsService
	logger        *logrus.Logger
}

// NewPointsHandler creates a new points handler
func NewPointsHandler(pointsService services.PointsService, logger *logrus.Logger) *PointsHandler {
	return &PointsHandler{pointsService: pointsService, logger: logger}
}

// MyTransactions returns the customer's balance and ledger
// @Summary Own points statement
// @Tags points
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.PointsStatement}
// @Router /api/v1/puntos/mis-transacciones [get]
func (h *PointsHandler) MyTransactions(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	statement, err := h.pointsService.Statement(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, statement)
}

// CustomerTransactions returns a customer's statement for administrators
// @Summary Customer points statement
// @Tags points
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} models.APIResponse{data=models.PointsStatement}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/puntos/cliente/{id} [get]
func (h *PointsHandler) CustomerTransactions(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	statement, err := h.pointsService.Statement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, statement)
}

// Adjust records a manual ledger entry
// @Summary Manual points adjustment
// @Tags points
// @Accept json
// @Produce json
// @Param request body models.PointsAdjustmentRequest true "Adjustment"
// @Success 201 {object} models.APIResponse{data=models.PointsTransaction}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/transacciones/crear [post]
func (h *PointsHandler) Adjust(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)

	var req models.PointsAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.Type = models.PointsTransactionType(strings.ToUpper(string(req.Type)))

	transaction, err := h.pointsService.Adjust(c.Request.Context(), adminID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created(c, transaction)
}
