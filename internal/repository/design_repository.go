package repository

import (
	"context"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
)

type DesignRepository interface {
	Create(ctx context.Context, design *models.CustomDesign) error
	GetByID(ctx context.Context, id uint) (*models.CustomDesign, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]models.CustomDesign, error)
	List(ctx context.Context, filters DesignFilters) ([]models.CustomDesign, int64, error)
	Update(ctx context.Context, design *models.CustomDesign) error
}

type DesignFilters struct {
	Status     models.DesignStatus
	CustomerID *uint
	ListParams
}

type designRepository struct {
	db *gorm.DB
}

// NewDesignRepository creates a new custom design repository
func NewDesignRepository(db *gorm.DB) DesignRepository {
	return &designRepository{db: db}
}

func (r *designRepository) Create(ctx context.Context, design *models.CustomDesign) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(design).Error
}

func (r *designRepository) GetByID(ctx context.Context, id uint) (*models.CustomDesign, error) {
	var design models.CustomDesign
	if err := r.db.WithContext(ctx).First(&design, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &design, nil
}

func (r *designRepository) ListByCustomer(ctx context.Context, customerID uint) ([]models.CustomDesign, error) {
	var designs []models.CustomDesign
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&designs).Error
	return designs, err
}

func (r *designRepository) List(ctx context.Context, filters DesignFilters) ([]models.CustomDesign, int64, error) {
	var designs []models.CustomDesign
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CustomDesign{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filters.Normalize()
	order := orderClause(filters.ListParams, map[string]string{
		"fecha":          "created_at",
		"precioEstimado": "estimated_price",
		"estado":         "status",
	}, "created_at")

	err := query.Order(order).Offset(filters.Offset()).Limit(filters.Limit).Find(&designs).Error
	return designs, total, err
}

func (r *designRepository) Update(ctx context.Context, design *models.CustomDesign) error {
	return r.db.WithContext(ctx).Omit("Customer").Save(design).Error
}
