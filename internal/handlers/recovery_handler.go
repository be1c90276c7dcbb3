package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// RecoveryHandler handles password recovery
type RecoveryHandler struct {
	recoveryService services.RecoveryService
	logger          *logrus.Logger
}

// NewRecoveryHandler creates a new recovery handler
func NewRecoveryHandler(recoveryService services.RecoveryService, logger *logrus.Logger) *RecoveryHandler {
	return &RecoveryHandler{recoveryService: recoveryService, logger: logger}
}

// Request emails a recovery token; the answer is the same whether the account exists or not
// @Summary Request password recovery
// @Tags recovery
// @Accept json
// @Produce json
// @Param request body models.RecoveryRequestPayload true "Email"
// @Success 202 {object} models.APIResponse
// @Failure 429 {object} map[string]string
// @Router /api/v1/recuperacion/solicitar [post]
func (h *RecoveryHandler) Request(c *gin.Context) {
	var req models.RecoveryRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.recoveryService.Request(c.Request.Context(), req.Email); err != nil {
		h.logger.WithError(err).Error("Password recovery request failed")
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Message: "Si el correo está registrado, recibirás un código de recuperación",
	})
}

// Validate checks that a token is unused and not expired
// @Summary Validate recovery token
// @Tags recovery
// @Produce json
// @Param token path string true "Recovery token"
// @Success 200 {object} models.APIResponse{data=models.RecoveryValidation}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/recuperacion/validar/{token} [get]
func (h *RecoveryHandler) Validate(c *gin.Context) {
	result, err := h.recoveryService.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, result)
}

// Reset sets a new password using a recovery token
// @Summary Reset password
// @Tags recovery
// @Accept json
// @Produce json
// @Param request body models.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/recuperacion/restablecer [post]
func (h *RecoveryHandler) Reset(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.recoveryService.Reset(c.Request.Context(), &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Contraseña restablecida"})
}
