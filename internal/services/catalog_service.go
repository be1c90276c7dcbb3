package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/cache"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/storage"
)

const catalogVersionKey = "catalog:version"

// CatalogService manages categories and products
type CatalogService interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint, includeInactive bool) (*models.Category, error)
	CreateCategory(ctx context.Context, adminID uint, req *models.CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id, adminID uint, req *models.UpdateCategoryRequest) (*models.Category, error)
	SetCategoryActive(ctx context.Context, id uint, active bool) (*models.Category, error)

	ListProducts(ctx context.Context, filters repository.ProductFilters) ([]models.Product, int64, error)
	GetProduct(ctx context.Context, id uint, includeInactive bool) (*models.Product, error)
	CreateProduct(ctx context.Context, adminID uint, req *models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id, adminID uint, req *models.UpdateProductRequest) (*models.Product, error)
	SetProductActive(ctx context.Context, id uint, active bool) (*models.Product, error)
	UploadProductImage(ctx context.Context, id uint, content io.Reader, size int64) (*models.Product, error)
}

type catalogService struct {
	store    *repository.Store
	cache    cache.Cache
	images   ImageUploader
	cacheTTL time.Duration
	logger   *logrus.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *repository.Store, c cache.Cache, images ImageUploader, cacheTTL time.Duration, logger *logrus.Logger) CatalogService {
	return &catalogService{
		store:    store,
		cache:    c,
		images:   images,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

type cachedProductPage struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
}

// version returns the current catalog generation; bumping it orphans every cached page
func (s *catalogService) version(ctx context.Context) string {
	if v, ok := s.cache.Get(ctx, catalogVersionKey); ok {
		return v
	}
	return "0"
}

func (s *catalogService) invalidate(ctx context.Context) {
	if _, err := s.cache.Incr(ctx, catalogVersionKey); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate catalog cache")
	}
}

func productsCacheKey(version string, f repository.ProductFilters) string {
	category := "all"
	if f.CategoryID != nil {
		category = fmt.Sprint(*f.CategoryID)
	}
	custom := "all"
	if f.IsCustom != nil {
		custom = fmt.Sprint(*f.IsCustom)
	}
	return fmt.Sprintf("catalog:%s:products:c=%s:q=%s:custom=%s:p=%d:l=%d:s=%s:%s",
		version, category, strings.ToLower(f.Search), custom, f.Page, f.Limit, f.SortBy, f.SortOrder)
}

// ==========================================
// CATEGORIES
// ==========================================

func (s *catalogService) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	if includeInactive {
		return s.store.Categories.List(ctx, true)
	}

	key := fmt.Sprintf("catalog:%s:categories", s.version(ctx))
	var categories []models.Category
	if s.cache.GetJSON(ctx, key, &categories) {
		return categories, nil
	}

	categories, err := s.store.Categories.List(ctx, false)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, categories, s.cacheTTL); err != nil {
		s.logger.WithError(err).Debug("Failed to cache categories")
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id uint, includeInactive bool) (*models.Category, error) {
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	if !category.Active && !includeInactive {
		return nil, fmt.Errorf("category: %w", ErrNotFound)
	}
	return category, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, adminID uint, req *models.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation("category name is required")
	}
	if err := s.ensureCategoryName(ctx, name, 0); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Active:      true,
		AdminID:     &adminID,
	}
	if err := s.store.Categories.Create(ctx, category); err != nil {
		return nil, duplicate(err, "category")
	}

	s.invalidate(ctx)
	return category, nil
}

func (s *catalogService) ensureCategoryName(ctx context.Context, name string, excludeID uint) error {
	exists, err := s.store.Categories.NameExists(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return fmt.Errorf("category %q already exists: %w", name, ErrConflict)
	}
	return nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id, adminID uint, req *models.UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validation("category name cannot be empty")
		}
		if !strings.EqualFold(name, category.Name) {
			if err := s.ensureCategoryName(ctx, name, id); err != nil {
				return nil, err
			}
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = strings.TrimSpace(*req.Description)
	}
	category.AdminID = &adminID

	if err := s.store.Categories.Update(ctx, category); err != nil {
		return nil, duplicate(err, "category")
	}

	s.invalidate(ctx)
	return category, nil
}

func (s *catalogService) SetCategoryActive(ctx context.Context, id uint, active bool) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.store.Categories.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	category.Active = active

	s.invalidate(ctx)
	return category, nil
}

// ==========================================
// PRODUCTS
// ==========================================

func (s *catalogService) ListProducts(ctx context.Context, filters repository.ProductFilters) ([]models.Product, int64, error) {
	filters.Normalize()
	if filters.IncludeInactive {
		return s.store.Products.List(ctx, filters)
	}

	key := productsCacheKey(s.version(ctx), filters)
	var page cachedProductPage
	if s.cache.GetJSON(ctx, key, &page) {
		return page.Items, page.Total, nil
	}

	products, total, err := s.store.Products.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	if err := s.cache.SetJSON(ctx, key, cachedProductPage{Items: products, Total: total}, s.cacheTTL); err != nil {
		s.logger.WithError(err).Debug("Failed to cache product page")
	}
	return products, total, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint, includeInactive bool) (*models.Product, error) {
	product, err := s.store.Products.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !product.Active && !includeInactive {
		return nil, fmt.Errorf("product: %w", ErrNotFound)
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, adminID uint, req *models.CreateProductRequest) (*models.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" || strings.TrimSpace(req.Name) == "" {
		return nil, validation("sku and name are required")
	}
	if req.Price < 0 || req.Stock < 0 {
		return nil, validation("price and stock must not be negative")
	}
	if err := s.ensureSKU(ctx, sku, 0); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		SKU:          sku,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		ImageURL:     req.ImageURL,
		IsCustom:     req.IsCustom,
		ColorOptions: req.ColorOptions,
		SizeOptions:  req.SizeOptions,
		Active:       true,
		CategoryID:   req.CategoryID,
		AdminID:      &adminID,
	}
	if err := s.store.Products.Create(ctx, product); err != nil {
		return nil, duplicate(err, "product sku")
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"sku":        product.SKU,
	}).Info("Product created")
	return product, nil
}

func (s *catalogService) ensureSKU(ctx context.Context, sku string, excludeID uint) error {
	exists, err := s.store.Products.SKUExists(ctx, sku, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check sku: %w", err)
	}
	if exists {
		return fmt.Errorf("sku %q already exists: %w", sku, ErrConflict)
	}
	return nil
}

func (s *catalogService) ensureCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.store.Categories.GetByID(ctx, *categoryID); err != nil {
		if isNotFound(err) {
			return validation("category %d does not exist", *categoryID)
		}
		return fmt.Errorf("failed to load category: %w", err)
	}
	return nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id, adminID uint, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		if sku == "" {
			return nil, validation("sku cannot be empty")
		}
		if sku != product.SKU {
			if err := s.ensureSKU(ctx, sku, id); err != nil {
				return nil, err
			}
		}
		product.SKU = sku
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, validation("price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, validation("stock must not be negative")
		}
		product.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.IsCustom != nil {
		product.IsCustom = *req.IsCustom
	}
	if req.ColorOptions != nil {
		product.ColorOptions = *req.ColorOptions
	}
	if req.SizeOptions != nil {
		product.SizeOptions = *req.SizeOptions
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = req.CategoryID
		product.Category = nil
	}
	product.AdminID = &adminID

	if err := s.store.Products.Update(ctx, product); err != nil {
		return nil, duplicate(err, "product sku")
	}

	s.invalidate(ctx)
	return product, nil
}

func (s *catalogService) SetProductActive(ctx context.Context, id uint, active bool) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.store.Products.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	product.Active = active

	s.invalidate(ctx)
	return product, nil
}

func (s *catalogService) UploadProductImage(ctx context.Context, id uint, content io.Reader, size int64) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}

	url, err := uploadImage(ctx, s.images, storage.FolderProducts, content, size)
	if err != nil {
		return nil, err
	}
	if err := s.store.Products.SetImage(ctx, id, url); err != nil {
		return nil, fmt.Errorf("failed to save product image: %w", err)
	}
	product.ImageURL = url

	s.invalidate(ctx)
	return product, nil
}
