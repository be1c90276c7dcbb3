package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// OrderHandler handles checkout and orders
type OrderHandler struct {
	orderService services.OrderService
	logger       *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService services.OrderService, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// Checkout converts the cart into an order
// @Summary Checkout
// @Tags orders
// @Accept json
// @Produce json
// @Param request body models.CheckoutRequest false "Shipping address"
// @Success 201 {object} models.APIResponse{data=models.Order}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/pedidos/checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	var req models.CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	order, err := h.orderService.Checkout(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created(c, order)
}

// ListMine returns the customer's orders
// @Summary Own orders
// @Tags orders
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Order}
// @Router /api/v1/pedidos/mis-pedidos [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	orders, err := h.orderService.ListMine(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, orders)
}

// GetMine returns one of the customer's orders with its lines and payment
// @Summary Own order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.APIResponse{data=models.Order}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/pedidos/mi-pedido/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	order, err := h.orderService.GetMine(c.Request.Context(), customerID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, order)
}

// Cancel cancels one of the customer's unpaid orders
// @Summary Cancel own order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.APIResponse{data=models.Order}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/pedidos/{id}/cancelar [patch]
func (h *OrderHandler) Cancel(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), customerID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, order)
}

// List returns orders for administrators
// @Summary List orders
// @Tags orders
// @Produce json
// @Param estado query string false "Status filter"
// @Param clienteID query int false "Customer filter"
// @Param fechaInicio query string false "From date (YYYY-MM-DD)"
// @Param fechaFin query string false "To date, inclusive (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} models.APIResponse{data=[]models.Order}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/pedidos [get]
func (h *OrderHandler) List(c *gin.Context) {
	scope, err := services.ParseReportQuery(services.ReportQuery{
		Status:    c.Query("estado"),
		StartDate: c.Query("fechaInicio"),
		EndDate:   c.Query("fechaFin"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filters := repository.OrderFilters{
		Status:     scope.Status,
		CustomerID: queryUint(c, "clienteID"),
		From:       scope.From,
		To:         scope.To,
		ListParams: listParams(c),
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	paginated(c, orders, filters.ListParams, total)
}

// Get returns any order for administrators
// @Summary Get order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.APIResponse{data=models.Order}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/pedidos/admin/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, order)
}

// UpdateStatus moves an order to PENDIENTE or CANCELADO
// @Summary Update order status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body models.UpdateOrderStatusRequest true "New status"
// @Success 200 {object} models.APIResponse{data=models.Order}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/pedidos/{id}/estado [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	adminID, _ := middleware.GetAdminID(c)

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, adminID, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, order)
}
