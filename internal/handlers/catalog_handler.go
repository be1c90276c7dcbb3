package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// CatalogHandler handles categories and products
type CatalogHandler struct {
	catalogService services.CatalogService
	logger         *logrus.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService services.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, logger: logger}
}

func isAdmin(c *gin.Context) bool {
	viewer, found := middleware.GetViewer(c)
	return found && viewer.IsAdmin()
}

// ListCategories returns the active categories; admins may ask for all of them
// @Summary List categories
// @Tags catalog
// @Produce json
// @Param todas query bool false "Include disabled categories (admin)"
// @Success 200 {object} models.APIResponse{data=[]models.Category}
// @Router /api/v1/categorias [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	includeInactive := c.Query("todas") == "true" && isAdmin(c)

	categories, err := h.catalogService.ListCategories(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, categories)
}

// GetCategory returns a category
// @Summary Get category
// @Tags catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.APIResponse{data=models.Category}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/categorias/{id} [get]
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	category, err := h.catalogService.GetCategory(c.Request.Context(), id, isAdmin(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, category)
}

// CreateCategory adds a category
// @Summary Create category
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body models.CreateCategoryRequest true "Category"
// @Success 201 {object} models.APIResponse{data=models.Category}
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/categorias [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)

	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), adminID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created(c, category)
}

// UpdateCategory applies a partial category update
// @Summary Update category
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body models.UpdateCategoryRequest true "Fields"
// @Success 200 {object} models.APIResponse{data=models.Category}
// @Router /api/v1/categorias/{id} [patch]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	adminID, _ := middleware.GetAdminID(c)

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, adminID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, category)
}

// DisableCategory soft-disables a category
// @Summary Disable category
// @Tags catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.APIResponse{data=models.Category}
// @Router /api/v1/categorias/{id} [delete]
func (h *CatalogHandler) DisableCategory(c *gin.Context) {
	h.setCategoryActive(c, false)
}

// EnableCategory re-enables a category
// @Summary Enable category
// @Tags catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.APIResponse{data=models.Category}
// @Router /api/v1/categorias/{id}/habilitar [patch]
func (h *CatalogHandler) EnableCategory(c *gin.Context) {
	h.setCategoryActive(c, true)
}

func (h *CatalogHandler) setCategoryActive(c *gin.Context, active bool) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	category, err := h.catalogService.SetCategoryActive(c.Request.Context(), id, active)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, category)
}

func productFilters(c *gin.Context, includeInactive bool) repository.ProductFilters {
	filters := repository.ProductFilters{
		CategoryID:      queryUint(c, "categoriaID"),
		Search:          strings.TrimSpace(c.Query("q")),
		IsCustom:        queryBool(c, "personalizado"),
		IncludeInactive: includeInactive,
		ListParams:      listParams(c),
	}
	return filters
}

// ListProducts returns the active products
// @Summary List products
// @Tags catalog
// @Produce json
// @Param categoriaID query int false "Category filter"
// @Param q query string false "Search on name or description"
// @Param personalizado query bool false "Custom products only"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} models.APIResponse{data=[]models.Product}
// @Router /api/v1/productos [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	h.listProducts(c, false)
}

// ListAllProducts returns every product, including disabled ones
// @Summary List all products
// @Tags catalog
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Product}
// @Router /api/v1/productos/todas [get]
func (h *CatalogHandler) ListAllProducts(c *gin.Context) {
	h.listProducts(c, true)
}

func (h *CatalogHandler) listProducts(c *gin.Context, includeInactive bool) {
	filters := productFilters(c, includeInactive)

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	paginated(c, products, filters.ListParams, total)
}

// GetProduct returns a product; disabled products are only visible to admins
// @Summary Get product
// @Tags catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.APIResponse{data=models.Product}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/productos/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id, isAdmin(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, product)
}

// CreateProduct adds a product
// @Summary Create product
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body models.CreateProductRequest true "Product"
// @Success 201 {object} models.APIResponse{data=models.Product}
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/productos [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	adminID, _ := middleware.GetAdminID(c)

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), adminID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created(c, product)
}

// UpdateProduct applies a partial product update
// @Summary Update product
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body models.UpdateProductRequest true "Fields"
// @Success 200 {object} models.APIResponse{data=models.Product}
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/productos/{id} [patch]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	adminID, _ := middleware.GetAdminID(c)

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, adminID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, product)
}

// UploadProductImage stores the multipart "imagen" file as the product image
// @Summary Upload product image
// @Tags catalog
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Product ID"
// @Param imagen formData file true "Image"
// @Success 200 {object} models.APIResponse{data=models.Product}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/productos/{id}/imagen [post]
func (h *CatalogHandler) UploadProductImage(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	fileHeader, err := c.FormFile("imagen")
	if err != nil {
		badRequest(c, "El archivo 'imagen' es obligatorio")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "No se pudo leer la imagen")
		return
	}
	defer file.Close()

	product, err := h.catalogService.UploadProductImage(c.Request.Context(), id, file, fileHeader.Size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, product)
}

// EnableProduct re-enables a product
// @Summary Enable product
// @Tags catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.APIResponse{data=models.Product}
// @Router /api/v1/productos/{id}/habilitar [patch]
func (h *CatalogHandler) EnableProduct(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	product, err := h.catalogService.SetProductActive(c.Request.Context(), id, true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, product)
}

// DisableProduct hides a product from the storefront
// @Summary Disable product
// @Tags catalog
// @Param id path int true "Product ID"
// @Success 204
// @Router /api/v1/productos/{id}/deshabilitar [delete]
func (h *CatalogHandler) DisableProduct(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	if _, err := h.catalogService.SetProductActive(c.Request.Context(), id, false); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
