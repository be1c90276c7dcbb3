package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

const maxWebhookBody = 1 << 20

// PaymentHandler handles payments and the gateway webhook
type PaymentHandler struct {
	paymentService services.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

// Create opens the payment of one of the customer's orders
// @Summary Create payment
// @Tags payments
// @Accept json
// @Produce json
// @Param request body models.CreatePaymentRequest true "Payment"
// @Success 201 {object} models.APIResponse{data=models.Payment}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Failure 502 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /api/v1/pagos/crear [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.Method = models.PaymentMethod(strings.ToUpper(string(req.Method)))

	payment, err := h.paymentService.Create(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created(c, payment)
}

// Confirm confirms a payment manually and awards the loyalty points
// @Summary Confirm payment
// @Tags payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} models.APIResponse{data=models.Payment}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/pagos/{id}/confirmar [patch]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	adminID, _ := middleware.GetAdminID(c)

	payment, err := h.paymentService.Confirm(c.Request.Context(), id, adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, payment)
}

// Webhook receives checksum-signed events from the payment gateway
// @Summary Gateway webhook
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/pagos/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil || len(body) == 0 {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), body); err != nil {
		h.logger.WithError(err).Warn("Gateway webhook rejected")
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Success: true})
}

// List returns payments for administrators
// @Summary List payments
// @Tags payments
// @Produce json
// @Param confirmado query bool false "Confirmation filter"
// @Param metodo query string false "Method filter"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} models.APIResponse{data=[]models.Payment}
// @Router /api/v1/pagos [get]
func (h *PaymentHandler) List(c *gin.Context) {
	filters := repository.PaymentFilters{
		Confirmed:  queryBool(c, "confirmado"),
		ListParams: listParams(c),
	}
	if method := strings.TrimSpace(c.Query("metodo")); method != "" {
		filters.Method = models.PaymentMethod(strings.ToUpper(method))
		if !filters.Method.IsValid() {
			badRequest(c, "Método de pago desconocido: "+method)
			return
		}
	}

	payments, total, err := h.paymentService.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	paginated(c, payments, filters.ListParams, total)
}

// Get returns a payment to its owner or an admin
// @Summary Get payment
// @Tags payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} models.APIResponse{data=models.Payment}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/pagos/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	viewer, _ := middleware.GetViewer(c)

	payment, err := h.paymentService.Get(c.Request.Context(), id, viewer)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, payment)
}

// QRCode renders the hosted checkout URL of a payment as a PNG
// @Summary Payment QR code
// @Tags payments
// @Produce png
// @Param id path int true "Payment ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/pagos/{id}/qr [get]
func (h *PaymentHandler) QRCode(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	viewer, _ := middleware.GetViewer(c)

	png, err := h.paymentService.QRCode(c.Request.Context(), id, viewer)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
