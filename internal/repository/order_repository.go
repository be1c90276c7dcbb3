package repository

import (
	"context"
	"time"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]models.Order, error)
	List(ctx context.Context, filters OrderFilters) ([]models.Order, int64, error)
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)

	// UpdateStatus moves the order to `to` only when its current status is one of `from`
	UpdateStatus(ctx context.Context, id uint, to models.OrderStatus, adminID *uint, from ...models.OrderStatus) error
	ApplyPoints(ctx context.Context, id uint, points int64) error
	DetachCustomer(ctx context.Context, customerID uint) error
	ListExpiredUnpaid(ctx context.Context, before time.Time, limit int) ([]models.Order, error)
}

type OrderFilters struct {
	Status     models.OrderStatus
	CustomerID *uint
	From       *time.Time
	To         *time.Time
	ListParams
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Payment", "Customer", "Address").Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Payment").
		Preload("Address").
		Preload("Customer").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Payment").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) List(ctx context.Context, filters OrderFilters) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at < ?", *filters.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filters.Normalize()
	order := orderClause(filters.ListParams, map[string]string{
		"fecha":  "created_at",
		"total":  "total",
		"estado": "status",
	}, "created_at")

	err := query.
		Preload("Payment").
		Preload("Customer").
		Order(order).
		Offset(filters.Offset()).
		Limit(filters.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, to models.OrderStatus, adminID *uint, from ...models.OrderStatus) error {
	updates := map[string]interface{}{"status": to}
	if adminID != nil {
		updates["admin_id"] = *adminID
	}
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	return guarded(query.Updates(updates))
}

func (r *orderRepository) ApplyPoints(ctx context.Context, id uint, points int64) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"points_used":      points,
			"paid_with_points": points > 0,
		}))
}

// DetachCustomer flags the orders and payments of a customer about to be deleted
// and drops the reference so history survives the delete.
func (r *orderRepository) DetachCustomer(ctx context.Context, customerID uint) error {
	db := r.db.WithContext(ctx)

	orderIDs := db.Model(&models.Order{}).Select("id").Where("customer_id = ?", customerID)
	if err := db.Model(&models.Payment{}).
		Where("order_id IN (?)", orderIDs).
		Update("customer_deleted", true).Error; err != nil {
		return err
	}

	return db.Model(&models.Order{}).
		Where("customer_id = ?", customerID).
		Updates(map[string]interface{}{
			"customer_deleted": true,
			"customer_id":      nil,
		}).Error
}

// ListExpiredUnpaid returns orders still waiting for a payment after the cutoff
func (r *orderRepository) ListExpiredUnpaid(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.OrderStatusToPay, before).
		Where("NOT EXISTS (SELECT 1 FROM pagos WHERE pagos.order_id = pedidos.id)").
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// ==========================================
// PAYMENTS
// ==========================================

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	GetByOrderID(ctx context.Context, orderID uint) (*models.Payment, error)
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	List(ctx context.Context, filters PaymentFilters) ([]models.Payment, int64, error)

	// Confirm flips confirmado exactly once
	Confirm(ctx context.Context, id uint, adminID *uint, at time.Time) error
	SetCheckout(ctx context.Context, id uint, reference, checkoutURL string) error
	UpdateGatewayStatus(ctx context.Context, id uint, status string) error
}

type PaymentFilters struct {
	Confirmed *bool
	Method    models.PaymentMethod
	ListParams
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "reference = ?", reference).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, filters PaymentFilters) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{})
	if filters.Confirmed != nil {
		query = query.Where("confirmed = ?", *filters.Confirmed)
	}
	if filters.Method != "" {
		query = query.Where("method = ?", filters.Method)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filters.Normalize()
	order := orderClause(filters.ListParams, map[string]string{
		"fecha": "paid_at",
		"monto": "amount",
	}, "paid_at")

	err := query.Order(order).Offset(filters.Offset()).Limit(filters.Limit).Find(&payments).Error
	return payments, total, err
}

func (r *paymentRepository) Confirm(ctx context.Context, id uint, adminID *uint, at time.Time) error {
	updates := map[string]interface{}{
		"confirmed":    true,
		"confirmed_at": at,
	}
	if adminID != nil {
		updates["admin_id"] = *adminID
	}
	return guarded(r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND confirmed = ?", id, false).
		Updates(updates))
}

func (r *paymentRepository) SetCheckout(ctx context.Context, id uint, reference, checkoutURL string) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reference":    reference,
			"checkout_url": checkoutURL,
		}))
}

func (r *paymentRepository) UpdateGatewayStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Update("gateway_status", status).Error
}
