package repository

import (
	"context"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
)

// PointsRepository is the append-only loyalty ledger. Entries are never updated or deleted.
type PointsRepository interface {
	Append(ctx context.Context, entry *models.PointsTransaction) error
	ListByCustomer(ctx context.Context, customerID uint) ([]models.PointsTransaction, error)
	SumForOrder(ctx context.Context, orderID uint, kind models.PointsTransactionType) (int64, error)
}

type pointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository creates a new points ledger repository
func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) Append(ctx context.Context, entry *models.PointsTransaction) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(entry).Error
}

func (r *pointsRepository) ListByCustomer(ctx context.Context, customerID uint) ([]models.PointsTransaction, error) {
	var entries []models.PointsTransaction
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *pointsRepository) SumForOrder(ctx context.Context, orderID uint, kind models.PointsTransactionType) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("order_id = ? AND type = ?", orderID, kind).
		Scan(&total).Error
	return total, err
}
