package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrInsufficientPoints),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrTokenInvalid):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrAccountInactive):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrAlreadyConfirmed),
		errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrGatewayFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope; unexpected errors are logged and hidden from the client
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request failed")
		}
		message = "Error interno del servidor"
	}
	c.JSON(status, models.APIResponse{Success: false, Message: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Message: message})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, models.APIResponse{Success: true, Data: data})
}

func paginated(c *gin.Context, data interface{}, params repository.ListParams, total int64) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success:    true,
		Data:       data,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	})
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "ID inválido: "+name)
		return 0, false
	}
	return uint(id), true
}

// listParams reads page, limit, sortBy and sortOrder from the query string
func listParams(c *gin.Context) repository.ListParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	params := repository.ListParams{
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	params.Normalize()
	return params
}

// queryBool parses an optional boolean filter; absent or malformed values yield nil
func queryBool(c *gin.Context, key string) *bool {
	raw, present := c.GetQuery(key)
	if !present {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// queryUint parses an optional numeric filter
func queryUint(c *gin.Context, key string) *uint {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return nil
	}
	id := uint(value)
	return &id
}
