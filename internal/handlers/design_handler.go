package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// DesignHandler handles custom design requests
type DesignHandler struct {
	designService services.DesignService
	logger        *logrus.Logger
}

// NewDesignHandler creates a new design handler
func NewDesignHandler(designService services.DesignService, logger *logrus.Logger) *DesignHandler {
	return &DesignHandler{designService: designService, logger: logger}
}

// Create submits a design with its reference image
// @Summary Submit custom design
// @Tags designs
// @Accept multipart/form-data
// @Produce json
// @Param imagen formData file true "Reference image"
// @Param descripcion formData string false "Description"
// @Param data formData string false "Design data as a JSON string"
// @Success 201 {object} models.APIResponse{data=models.CustomDesign}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/disenos/crear [post]
func (h *DesignHandler) Create(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

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

	design, err := h.designService.Create(c.Request.Context(), customerID, &services.DesignSubmission{
		Description: strings.TrimSpace(c.PostForm("descripcion")),
		Data:        c.PostForm("data"),
		Image:       file,
		ImageSize:   fileHeader.Size,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	created(c, design)
}

// ListMine returns the customer's designs
// @Summary Own designs
// @Tags designs
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.CustomDesign}
// @Router /api/v1/disenos/mis-disenos [get]
func (h *DesignHandler) ListMine(c *gin.Context) {
	customerID, _ := middleware.GetCustomerID(c)

	designs, err := h.designService.ListMine(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, designs)
}

// Get returns a design to its owner or an admin
// @Summary Get design
// @Tags designs
// @Produce json
// @Param id path int true "Design ID"
// @Success 200 {object} models.APIResponse{data=models.CustomDesign}
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/disenos/{id} [get]
func (h *DesignHandler) Get(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	viewer, _ := middleware.GetViewer(c)

	design, err := h.designService.Get(c.Request.Context(), id, viewer)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, design)
}

// List returns designs for administrators
// @Summary List designs
// @Tags designs
// @Produce json
// @Param estado query string false "Status filter"
// @Param clienteID query int false "Customer filter"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} models.APIResponse{data=[]models.CustomDesign}
// @Router /api/v1/disenos [get]
func (h *DesignHandler) List(c *gin.Context) {
	filters := repository.DesignFilters{
		CustomerID: queryUint(c, "clienteID"),
		ListParams: listParams(c),
	}
	if status := strings.TrimSpace(c.Query("estado")); status != "" {
		filters.Status = models.DesignStatus(strings.ToUpper(status))
		if !filters.Status.IsValid() {
			badRequest(c, "Estado de diseño desconocido: "+status)
			return
		}
	}

	designs, total, err := h.designService.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	paginated(c, designs, filters.ListParams, total)
}

// Update prices a design or advances its status
// @Summary Update design
// @Tags designs
// @Accept json
// @Produce json
// @Param id path int true "Design ID"
// @Param request body models.UpdateDesignRequest true "Status and price"
// @Success 200 {object} models.APIResponse{data=models.CustomDesign}
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/disenos/{id} [patch]
func (h *DesignHandler) Update(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	adminID, _ := middleware.GetAdminID(c)

	var req models.UpdateDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	design, err := h.designService.Update(c.Request.Context(), id, adminID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ok(c, design)
}
