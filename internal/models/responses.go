package models

import "time"

// APIResponse is the envelope every JSON endpoint returns
type APIResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes a page of a list result
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes page metadata
func NewPagination(page, limit int, total int64) *Pagination {
	if limit < 1 {
		limit = 1
	}
	pages := int(total / int64(limit))
	if total%int64(limit) != 0 {
		pages++
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Principal is the authenticated identity behind a session
type Principal struct {
	Type   PrincipalType `json:"tipo"`
	ID     uint          `json:"id"`
	Name   string        `json:"nombre"`
	Email  string        `json:"email"`
	Points *int64        `json:"puntos,omitempty"`
}

// RecoveryValidation reports whether a recovery token can be used
type RecoveryValidation struct {
	Valid     bool      `json:"valido"`
	ExpiresAt time.Time `json:"expiracion"`
}

// ProductSales is a product with its sold quantity and revenue
type ProductSales struct {
	ProductID uint   `json:"productoID"`
	Name      string `json:"nombre"`
	Quantity  int64  `json:"cantidad"`
	Revenue   int64  `json:"ingresos"`
}

// RecentOrder is a row of the dashboard's latest orders
type RecentOrder struct {
	ID           uint        `json:"id"`
	CustomerName string      `json:"cliente"`
	Total        int64       `json:"total"`
	Status       OrderStatus `json:"estado"`
	CreatedAt    time.Time   `json:"fecha"`
}

// MonthlySales is one bucket of the sales chart
type MonthlySales struct {
	Month string `json:"mes"`
	Total int64  `json:"total"`
}

// DashboardMetrics aggregates the admin dashboard
type DashboardMetrics struct {
	MonthSales      int64          `json:"ventasMes"`
	ActiveCustomers int64          `json:"clientesActivos"`
	WeekOrders      int64          `json:"pedidosSemana"`
	TopProduct      *ProductSales  `json:"productoMasVendido"`
	RecentOrders    []RecentOrder  `json:"ultimosPedidos"`
	TopProducts     []ProductSales `json:"topProductos"`
	MonthlySales    []MonthlySales `json:"ventasMensuales"`
}

// OrderReportRow is one order line of the CSV export
type OrderReportRow struct {
	OrderID      uint
	CreatedAt    time.Time
	CustomerName string
	ProductName  string
	IsCustom     bool
	Quantity     int
	UnitPrice    int64
	Subtotal     int64
	OrderTotal   int64
	Status       OrderStatus
}
