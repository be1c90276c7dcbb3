package repository

import (
	"context"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	NameExists(ctx context.Context, name string, excludeID uint) (bool, error)
	List(ctx context.Context, includeInactive bool) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) NameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	var categories []models.Category
	query := r.db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	err := query.Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("active", active))
}

// ==========================================
// PRODUCTS
// ==========================================

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	SKUExists(ctx context.Context, sku string, excludeID uint) (bool, error)
	List(ctx context.Context, filters ProductFilters) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	SetActive(ctx context.Context, id uint, active bool) error
	SetImage(ctx context.Context, id uint, imageURL string) error

	// Stock movements used by checkout and cancellation
	DecrementStock(ctx context.Context, id uint, quantity int) error
	IncrementStock(ctx context.Context, id uint, quantity int) error
}

type ProductFilters struct {
	CategoryID      *uint
	Search          string
	IsCustom        *bool
	IncludeInactive bool
	ListParams
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) SKUExists(ctx context.Context, sku string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *productRepository) List(ctx context.Context, filters ProductFilters) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if !filters.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.IsCustom != nil {
		query = query.Where("is_custom = ?", *filters.IsCustom)
	}
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR sku ILIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filters.Normalize()
	order := orderClause(filters.ListParams, map[string]string{
		"nombre": "name",
		"precio": "price",
		"stock":  "stock",
		"fecha":  "created_at",
	}, "created_at")

	err := query.Preload("Category").
		Order(order).
		Offset(filters.Offset()).
		Limit(filters.Limit).
		Find(&products).Error
	return products, total, err
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Save(product).Error
}

func (r *productRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("active", active))
}

func (r *productRepository) SetImage(ctx context.Context, id uint, imageURL string) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("image_url", imageURL))
}

// DecrementStock removes units only while enough stock remains
func (r *productRepository) DecrementStock(ctx context.Context, id uint, quantity int) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity)))
}

func (r *productRepository) IncrementStock(ctx context.Context, id uint, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}
