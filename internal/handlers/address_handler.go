package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// AddressHandler handles the shipping addresses of the logged-in customer
type AddressHandler struct {
	addressService services.AddressService
	logger         *logrus.Logger
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(addressService services.AddressService, logger *logrus.Logger) *AddressHandler {
	return &AddressHandler{addressService: addressService, logger: logger}
}

// Create adds a shipping address
// @Summary Create address
// @Tags addresses
// @Accept json
// @Produce json
// @Param request body models.AddressRequest true "Address"
// @Success 201 {object} models.APIResponse{data=models.Address}
// @Router /api/v1/direcciones [post]
func (h *AddressHandler) Create(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	var req models.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	address, err := h.addressService.Create(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created(c, address)
}

// List returns the customer's addresses
// @Summary List addresses
// @Tags addresses
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Address}
// @Router /api/v1/direcciones [get]
func (h *AddressHandler) List(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	addresses, err := h.addressService.List(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, addresses)
}

// Update replaces an address
// @Summary Update address
// @Tags addresses
// @Accept json
// @Produce json
// @Param id path int true "Address ID"
// @Param request body models.AddressRequest true "Address"
// @Success 200 {object} models.APIResponse{data=models.Address}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/direcciones/{id} [put]
func (h *AddressHandler) Update(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	var req models.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	address, err := h.addressService.Update(c.Request.Context(), customerID, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, address)
}

// Delete removes an address
// @Summary Delete address
// @Tags addresses
// @Param id path int true "Address ID"
// @Success 204
// @Router /api/v1/direcciones/{id} [delete]
func (h *AddressHandler) Delete(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	if err := h.addressService.Delete(c.Request.Context(), customerID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetDefault marks an address as the default one
// @Summary Set default address
// @Tags addresses
// @Produce json
// @Param id path int true "Address ID"
// @Success 200 {object} models.APIResponse{data=models.Address}
// @Router /api/v1/direcciones/{id}/predeterminada [patch]
func (h *AddressHandler) SetDefault(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	address, err := h.addressService.SetDefault(c.Request.Context(), customerID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, address)
}
