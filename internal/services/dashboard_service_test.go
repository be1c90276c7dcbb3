package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

func TestMonthlyBuckets(t *testing.T) {
	orders := []models.Order{
		{Total: 100000, Status: models.OrderStatusPaid, CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Total: 50000, Status: models.OrderStatusToPay, CreatedAt: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)},
		{Total: 70000, Status: models.OrderStatusCancelled, CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Total: 30000, Status: models.OrderStatusPaid, CreatedAt: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	buckets := MonthlyBuckets(orders)
	require.Len(t, buckets, 12)
	assert.Equal(t, "Ene", buckets[0].Month)
	assert.Equal(t, int64(150000), buckets[0].Total)
	assert.Equal(t, int64(0), buckets[1].Total)
	assert.Equal(t, "Dic", buckets[11].Month)
	assert.Equal(t, int64(30000), buckets[11].Total)
}

func TestDashboardMetrics(t *testing.T) {
	reports := new(mockReportRepo)
	svc := NewDashboardService(reports).(*dashboardService)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)
	ctx := context.Background()

	top := []models.ProductSales{{ProductID: 11, Name: "Anillo", Quantity: 9, Revenue: 855000}}
	reports.On("SalesBetween", ctx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), now.Add(time.Second)).Return(int64(420000), nil)
	reports.On("CountActiveCustomers", ctx).Return(int64(12), nil)
	reports.On("CountOrdersSince", ctx, now.AddDate(0, 0, -7)).Return(int64(3), nil)
	reports.On("TopProducts", ctx, dashboardTopProducts).Return(top, nil)
	reports.On("RecentOrders", ctx, dashboardRecentOrders).Return(nil, nil)
	reports.On("OrdersSince", ctx, mock.Anything).Return([]models.Order{}, nil)

	metrics, err := svc.Metrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(420000), metrics.MonthSales)
	assert.Equal(t, int64(12), metrics.ActiveCustomers)
	assert.Equal(t, int64(3), metrics.WeekOrders)
	require.NotNil(t, metrics.TopProduct)
	assert.Equal(t, "Anillo", metrics.TopProduct.Name)
	assert.NotNil(t, metrics.RecentOrders)
	assert.Len(t, metrics.MonthlySales, 12)
}

func TestParseReportQuery(t *testing.T) {
	filters, err := ParseReportQuery(ReportQuery{Status: "pagado", StartDate: "2026-01-01", EndDate: "2026-01-31"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, filters.Status)
	assert.Equal(t, 1, filters.To.Day(), "end date is inclusive")
	assert.Equal(t, time.February, filters.To.Month())

	_, err = ParseReportQuery(ReportQuery{Status: "enviado"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseReportQuery(ReportQuery{StartDate: "01/01/2026"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseReportQuery(ReportQuery{StartDate: "2026-02-01", EndDate: "2026-01-01"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWriteOrdersCSV(t *testing.T) {
	reports := new(mockReportRepo)
	svc := NewReportService(reports)
	ctx := context.Background()

	created := time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC)
	reports.On("OrderLines", ctx, repository.ReportFilters{}).Return([]models.OrderReportRow{
		{OrderID: 30, CreatedAt: created, CustomerName: "Ana", ProductName: "Anillo", Quantity: 2, UnitPrice: 95000, Subtotal: 190000, OrderTotal: 490000, Status: models.OrderStatusPaid},
		{OrderID: 30, CreatedAt: created, CustomerName: "Ana", IsCustom: true, Quantity: 1, UnitPrice: 300000, Subtotal: 300000, OrderTotal: 490000, Status: models.OrderStatusPaid},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteOrdersCSV(ctx, ReportQuery{}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, orderReportHeader, records[0])
	assert.Equal(t, []string{"30", "2026-03-02 15:04", "Ana", "Anillo", "2", "95000", "190000", "490000", string(models.OrderStatusPaid)}, records[1])
	assert.Equal(t, models.CustomDesignLabel, records[2][3])
}
