package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// AuthHandler handles login, logout and the admin's own profile
type AuthHandler struct {
	authService services.AuthService
	sessions    services.SessionService
	cookies     *middleware.SessionCookies
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService services.AuthService, sessions services.SessionService, cookies *middleware.SessionCookies, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		cookies:     cookies,
		logger:      logger,
	}
}

// Login authenticates an admin or a customer and opens a session
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse{data=models.Principal}
// @Failure 401 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 429 {object} map[string]string
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	session, principal, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, models.APIResponse{Success: false, Message: "Credenciales inválidas"})
		case errors.Is(err, services.ErrAccountInactive):
			c.JSON(http.StatusForbidden, models.APIResponse{Success: false, Message: "Cuenta inactiva"})
		default:
			respondError(c, h.logger, err)
		}
		return
	}

	if err := h.cookies.Write(c, session.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, principal)
}

// Logout closes the current session and expires the cookie
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.cookies.Clear(c); err != nil {
		h.logger.WithError(err).Warn("Failed to clear session cookie")
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Sesión cerrada"})
}

// Me returns the principal behind the current session
// @Summary Current principal
// @Tags auth
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Principal}
// @Failure 401 {object} map[string]string
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session, err := h.sessions.Resolve(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sesión inválida", "code": "AUTH_REQUIRED"})
		return
	}

	principal, err := h.authService.Principal(c.Request.Context(), session)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, principal)
}

// GetAdmin returns the logged-in admin profile
// @Summary Admin profile
// @Tags admin
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Admin}
// @Router /api/v1/admin [get]
func (h *AuthHandler) GetAdmin(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)

	admin, err := h.authService.GetAdmin(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, admin)
}

// UpdateAdmin changes the admin's name or email
// @Summary Update admin profile
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.UpdateAdminRequest true "Profile fields"
// @Success 200 {object} models.APIResponse{data=models.Admin}
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/admin [patch]
func (h *AuthHandler) UpdateAdmin(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)

	var req models.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	admin, err := h.authService.UpdateAdmin(c.Request.Context(), adminID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, admin)
}

// ChangeAdminPassword replaces the admin password
// @Summary Change admin password
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Router /api/v1/admin/contrasena [patch]
func (h *AuthHandler) ChangeAdminPassword(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.authService.ChangeAdminPassword(c.Request.Context(), adminID, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Contraseña actualizada"})
}
