package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// CartHandler handles the shopping cart and the wishlist of the logged-in customer
type CartHandler struct {
	cartService     services.CartService
	wishlistService services.WishlistService
	logger          *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService services.CartService, wishlistService services.WishlistService, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		wishlistService: wishlistService,
		logger:          logger,
	}
}

// GetCart returns the cart with its computed total
// @Summary Get cart
// @Tags cart
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.CartView}
// @Router /api/v1/carrito/mi-carrito [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	cart, err := h.cartService.GetCart(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, cart)
}

// AddProduct adds a product, merging into an existing line
// @Summary Add product to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param request body models.AddProductToCartRequest true "Product and quantity"
// @Success 200 {object} models.APIResponse{data=models.CartView}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/carrito/agregar-producto [post]
func (h *CartHandler) AddProduct(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	var req models.AddProductToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.cartService.AddProduct(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, cart)
}

// AddDesign adds a priced custom design
// @Summary Add design to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param request body models.AddDesignToCartRequest true "Design"
// @Success 200 {object} models.APIResponse{data=models.CartView}
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/carrito/agregar-diseno [post]
func (h *CartHandler) AddDesign(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	var req models.AddDesignToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.cartService.AddDesign(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, cart)
}

// UpdateQuantity changes the quantity of a cart line
// @Summary Update cart line quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param lineaID path int true "Cart line ID"
// @Param request body models.UpdateCartQuantityRequest true "Quantity"
// @Success 200 {object} models.APIResponse{data=models.CartView}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/carrito/actualizar-cantidad/{lineaID} [patch]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	lineID, valid := parseID(c, "lineaID")
	if !valid {
		return
	}

	var req models.UpdateCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.cartService.UpdateQuantity(c.Request.Context(), customerID, lineID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, cart)
}

// RemoveLine deletes a cart line
// @Summary Remove cart line
// @Tags cart
// @Produce json
// @Param lineaID path int true "Cart line ID"
// @Success 200 {object} models.APIResponse{data=models.CartView}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/carrito/{lineaID} [delete]
func (h *CartHandler) RemoveLine(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	lineID, valid := parseID(c, "lineaID")
	if !valid {
		return
	}

	cart, err := h.cartService.RemoveLine(c.Request.Context(), customerID, lineID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, cart)
}

// Clear empties the cart
// @Summary Empty cart
// @Tags cart
// @Success 204
// @Router /api/v1/carrito [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	if err := h.cartService.Clear(c.Request.Context(), customerID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetWishlist returns the wishlist with its products
// @Summary Get wishlist
// @Tags wishlist
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Wishlist}
// @Router /api/v1/wishlist/mi-wishlist [get]
func (h *CartHandler) GetWishlist(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	wishlist, err := h.wishlistService.Get(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, wishlist)
}

// AddToWishlist saves a product for later
// @Summary Add to wishlist
// @Tags wishlist
// @Accept json
// @Produce json
// @Param request body models.AddWishlistItemRequest true "Product"
// @Success 201 {object} models.APIResponse{data=models.Wishlist}
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/wishlist/agregar [post]
func (h *CartHandler) AddToWishlist(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	var req models.AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	wishlist, err := h.wishlistService.Add(c.Request.Context(), customerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created(c, wishlist)
}

// RemoveFromWishlist deletes a wishlist item
// @Summary Remove wishlist item
// @Tags wishlist
// @Param itemID path int true "Wishlist item ID"
// @Success 204
// @Router /api/v1/wishlist/{itemID} [delete]
func (h *CartHandler) RemoveFromWishlist(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	itemID, valid := parseID(c, "itemID")
	if !valid {
		return
	}

	if err := h.wishlistService.Remove(c.Request.Context(), customerID, itemID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MoveToCart moves a wishlist item into the cart
// @Summary Move wishlist item to cart
// @Tags wishlist
// @Produce json
// @Param itemID path int true "Wishlist item ID"
// @Success 200 {object} models.APIResponse{data=models.CartView}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/wishlist/mover-al-carrito/{itemID} [post]
func (h *CartHandler) MoveToCart(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)
	itemID, valid := parseID(c, "itemID")
	if !valid {
		return
	}

	cart, err := h.wishlistService.MoveToCart(c.Request.Context(), customerID, itemID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, cart)
}
