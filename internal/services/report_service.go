package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

const reportDateLayout = "2006-01-02"

var orderReportHeader = []string{
	"Pedido ID", "Fecha", "Cliente", "Producto", "Cantidad",
	"Precio Unidad", "Subtotal", "Total Pedido", "Estado",
}

// ReportQuery holds the raw filters of the orders export
type ReportQuery struct {
	Status    string
	StartDate string
	EndDate   string
}

// ReportService renders exports for administrators
type ReportService interface {
	// WriteOrdersCSV writes one row per order line to w
	WriteOrdersCSV(ctx context.Context, query ReportQuery, w io.Writer) error
}

type reportService struct {
	reports repository.ReportRepository
}

// NewReportService creates a new report service
func NewReportService(reports repository.ReportRepository) ReportService {
	return &reportService{reports: reports}
}

// ParseReportQuery validates the filters; the end date is inclusive
func ParseReportQuery(query ReportQuery) (repository.ReportFilters, error) {
	var filters repository.ReportFilters

	if status := strings.TrimSpace(query.Status); status != "" {
		filters.Status = models.OrderStatus(strings.ToUpper(status))
		if !filters.Status.IsValid() {
			return filters, validation("unknown order status %q", status)
		}
	}
	if query.StartDate != "" {
		from, err := time.ParseInLocation(reportDateLayout, query.StartDate, time.Local)
		if err != nil {
			return filters, validation("fechaInicio must be YYYY-MM-DD")
		}
		filters.From = &from
	}
	if query.EndDate != "" {
		to, err := time.ParseInLocation(reportDateLayout, query.EndDate, time.Local)
		if err != nil {
			return filters, validation("fechaFin must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		filters.To = &to
	}
	if filters.From != nil && filters.To != nil && !filters.From.Before(*filters.To) {
		return filters, validation("fechaInicio must not be after fechaFin")
	}
	return filters, nil
}

func (s *reportService) WriteOrdersCSV(ctx context.Context, query ReportQuery, w io.Writer) error {
	filters, err := ParseReportQuery(query)
	if err != nil {
		return err
	}

	rows, err := s.reports.OrderLines(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to load report rows: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(orderReportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		product := row.ProductName
		if row.IsCustom && product == "" {
			product = models.CustomDesignLabel
		}
		record := []string{
			strconv.FormatUint(uint64(row.OrderID), 10),
			row.CreatedAt.Format("2006-01-02 15:04"),
			row.CustomerName,
			product,
			strconv.Itoa(row.Quantity),
			strconv.FormatInt(row.UnitPrice, 10),
			strconv.FormatInt(row.Subtotal, 10),
			strconv.FormatInt(row.OrderTotal, 10),
			string(row.Status),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
