package repository

import (
	"context"
	"time"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
)

// ReportRepository holds the read-only aggregate queries behind the dashboard and exports
type ReportRepository interface {
	SalesBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountActiveCustomers(ctx context.Context) (int64, error)
	CountOrdersSince(ctx context.Context, since time.Time) (int64, error)
	TopProducts(ctx context.Context, limit int) ([]models.ProductSales, error)
	RecentOrders(ctx context.Context, limit int) ([]models.RecentOrder, error)
	OrdersSince(ctx context.Context, since time.Time) ([]models.Order, error)
	OrderLines(ctx context.Context, filters ReportFilters) ([]models.OrderReportRow, error)
}

type ReportFilters struct {
	Status models.OrderStatus
	From   *time.Time
	To     *time.Time
}

const deletedCustomerLabel = "Cliente eliminado"

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SalesBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status <> ? AND created_at >= ? AND created_at < ?", models.OrderStatusCancelled, from, to).
		Scan(&total).Error
	return total, err
}

func (r *reportRepository) CountActiveCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

func (r *reportRepository) CountOrdersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// TopProducts ranks catalog products by units sold in non-cancelled orders
func (r *reportRepository) TopProducts(ctx context.Context, limit int) ([]models.ProductSales, error) {
	var rows []models.ProductSales
	err := r.db.WithContext(ctx).
		Table("detalles_pedido AS dp").
		Select("dp.product_id AS product_id, p.name AS name, SUM(dp.quantity) AS quantity, SUM(dp.subtotal) AS revenue").
		Joins("JOIN pedidos o ON o.id = dp.order_id").
		Joins("JOIN productos p ON p.id = dp.product_id").
		Where("dp.product_id IS NOT NULL AND o.status <> ?", models.OrderStatusCancelled).
		Group("dp.product_id, p.name").
		Order("quantity DESC, revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) RecentOrders(ctx context.Context, limit int) ([]models.RecentOrder, error) {
	var rows []models.RecentOrder
	err := r.db.WithContext(ctx).
		Table("pedidos AS o").
		Select("o.id AS id, COALESCE(c.name, ?) AS customer_name, o.total AS total, o.status AS status, o.created_at AS created_at", deletedCustomerLabel).
		Joins("LEFT JOIN clientes c ON c.id = o.customer_id").
		Order("o.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) OrdersSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Select("id", "total", "status", "created_at").
		Where("created_at >= ? AND status <> ?", since, models.OrderStatusCancelled).
		Find(&orders).Error
	return orders, err
}

// OrderLines returns one row per order line for the CSV export, skipping orders of deleted customers
func (r *reportRepository) OrderLines(ctx context.Context, filters ReportFilters) ([]models.OrderReportRow, error) {
	var rows []models.OrderReportRow

	query := r.db.WithContext(ctx).
		Table("detalles_pedido AS dp").
		Select(`o.id AS order_id, o.created_at AS created_at,
			COALESCE(c.name, ?) AS customer_name,
			CASE WHEN dp.design_id IS NOT NULL THEN ? ELSE COALESCE(p.name, dp.description) END AS product_name,
			dp.is_custom AS is_custom, dp.quantity AS quantity, dp.unit_price AS unit_price,
			dp.subtotal AS subtotal, o.total AS order_total, o.status AS status`,
			deletedCustomerLabel, models.CustomDesignLabel).
		Joins("JOIN pedidos o ON o.id = dp.order_id").
		Joins("LEFT JOIN clientes c ON c.id = o.customer_id").
		Joins("LEFT JOIN productos p ON p.id = dp.product_id").
		Where("o.customer_deleted = ?", false)

	if filters.Status != "" {
		query = query.Where("o.status = ?", filters.Status)
	}
	if filters.From != nil {
		query = query.Where("o.created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("o.created_at < ?", *filters.To)
	}

	err := query.Order("o.created_at DESC, o.id DESC, dp.id ASC").Scan(&rows).Error
	return rows, err
}
