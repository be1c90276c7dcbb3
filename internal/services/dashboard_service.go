package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

var monthLabels = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

const (
	dashboardRecentOrders = 4
	dashboardTopProducts  = 3
	salesChartWindow      = 180 * 24 * time.Hour
)

// DashboardService aggregates the admin dashboard
type DashboardService interface {
	Metrics(ctx context.Context) (*models.DashboardMetrics, error)
}

type dashboardService struct {
	reports repository.ReportRepository
	now     func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(reports repository.ReportRepository) DashboardService {
	return &dashboardService{reports: reports, now: time.Now}
}

func (s *dashboardService) Metrics(ctx context.Context) (*models.DashboardMetrics, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	monthSales, err := s.reports.SalesBetween(ctx, monthStart, now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to compute month sales: %w", err)
	}
	activeCustomers, err := s.reports.CountActiveCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	weekOrders, err := s.reports.CountOrdersSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	topProducts, err := s.reports.TopProducts(ctx, dashboardTopProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	recent, err := s.reports.RecentOrders(ctx, dashboardRecentOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	orders, err := s.reports.OrdersSince(ctx, now.Add(-salesChartWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load sales history: %w", err)
	}

	metrics := &models.DashboardMetrics{
		MonthSales:      monthSales,
		ActiveCustomers: activeCustomers,
		WeekOrders:      weekOrders,
		RecentOrders:    recent,
		TopProducts:     topProducts,
		MonthlySales:    MonthlyBuckets(orders),
	}
	if metrics.RecentOrders == nil {
		metrics.RecentOrders = []models.RecentOrder{}
	}
	if metrics.TopProducts == nil {
		metrics.TopProducts = []models.ProductSales{}
	}
	if len(topProducts) > 0 {
		top := topProducts[0]
		metrics.TopProduct = &top
	}
	return metrics, nil
}

// MonthlyBuckets sums order totals into the twelve calendar months Ene..Dic
func MonthlyBuckets(orders []models.Order) []models.MonthlySales {
	buckets := make([]models.MonthlySales, len(monthLabels))
	for i, label := range monthLabels {
		buckets[i].Month = label
	}
	for _, order := range orders {
		if order.Status == models.OrderStatusCancelled {
			continue
		}
		buckets[order.CreatedAt.Month()-1].Total += order.Total
	}
	return buckets
}
