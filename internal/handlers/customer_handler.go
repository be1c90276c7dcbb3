package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// CustomerHandler handles customer accounts
type CustomerHandler struct {
	customerService services.CustomerService
	sessions        services.SessionService
	cookies         *middleware.SessionCookies
	logger          *logrus.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService services.CustomerService, sessions services.SessionService, cookies *middleware.SessionCookies, logger *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		sessions:        sessions,
		cookies:         cookies,
		logger:          logger,
	}
}

// Register creates a customer account and logs it in
// @Summary Register customer
// @Tags customers
// @Accept json
// @Produce json
// @Param request body models.RegisterCustomerRequest true "Account data"
// @Success 201 {object} models.APIResponse{data=models.Customer}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/clientes/registrar [post]
func (h *CustomerHandler) Register(c *gin.Context) {
	var req models.RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customer, err := h.customerService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// the account exists even if the automatic login fails
	session, err := h.sessions.Create(c.Request.Context(), models.PrincipalCustomer, customer.ID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.logger.WithError(err).WithField("cliente_id", customer.ID).Warn("Failed to open session after registration")
	} else if err := h.cookies.Write(c, session.ID); err != nil {
		h.logger.WithError(err).Warn("Failed to write session cookie")
	}

	created(c, customer)
}

// GetMe returns the logged-in customer
// @Summary Own profile
// @Tags customers
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Customer}
// @Router /api/v1/clientes/me [get]
func (h *CustomerHandler) GetMe(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	customer, err := h.customerService.Get(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, customer)
}

// UpdateMe applies a partial update to the logged-in customer
// @Summary Update own profile
// @Tags customers
// @Accept json
// @Produce json
// @Param request body models.UpdateCustomerRequest true "Profile fields"
// @Success 200 {object} models.APIResponse{data=models.Customer}
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/clientes/me [patch]
func (h *CustomerHandler) UpdateMe(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	var req models.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customer, err := h.customerService.UpdateProfile(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, customer)
}

// DeleteMe removes the logged-in customer's account
// @Summary Delete own account
// @Tags customers
// @Success 204
// @Router /api/v1/clientes/me [delete]
func (h *CustomerHandler) DeleteMe(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	if err := h.customerService.Delete(c.Request.Context(), customerID, "self"); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.cookies.Clear(c); err != nil {
		h.logger.WithError(err).Warn("Failed to clear session cookie")
	}

	c.Status(http.StatusNoContent)
}

// List returns customers for administrators
// @Summary List customers
// @Tags customers
// @Produce json
// @Param q query string false "Search on name or email"
// @Param activo query bool false "Active filter"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} models.APIResponse{data=[]models.Customer}
// @Router /api/v1/clientes [get]
func (h *CustomerHandler) List(c *gin.Context) {
	filters := repository.CustomerFilters{
		Search:     strings.TrimSpace(c.Query("q")),
		Active:     queryBool(c, "activo"),
		ListParams: listParams(c),
	}

	customers, total, err := h.customerService.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	paginated(c, customers, filters.ListParams, total)
}

// Get returns a customer for administrators
// @Summary Get customer
// @Tags customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} models.APIResponse{data=models.Customer}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/clientes/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	customer, err := h.customerService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, customer)
}

// SetActive enables or disables a customer account
// @Summary Toggle customer
// @Tags customers
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param request body models.SetCustomerActiveRequest true "New state"
// @Success 200 {object} models.APIResponse{data=models.Customer}
// @Router /api/v1/clientes/{id}/estado [patch]
func (h *CustomerHandler) SetActive(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	var req models.SetCustomerActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customer, err := h.customerService.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, customer)
}

// Delete removes a customer account on behalf of an administrator
// @Summary Delete customer
// @Tags customers
// @Param id path int true "Customer ID"
// @Success 204
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/clientes/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	adminID, _ := middleware.GetAdminID(c)

	if err := h.customerService.Delete(c.Request.Context(), id, fmt.Sprintf("admin:%d", adminID)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
