package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// get returns the i-th mocked value as T, or T's zero value for nil
func get[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

type mockAuthService struct {
	services.AuthService
	mock.Mock
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest, ip, ua string) (*models.Session, *models.Principal, error) {
	args := m.Called(ctx, req, ip, ua)
	return get[*models.Session](args, 0), get[*models.Principal](args, 1), args.Error(2)
}

type mockCustomerService struct {
	services.CustomerService
	mock.Mock
}

func (m *mockCustomerService) List(ctx context.Context, filters repository.CustomerFilters) ([]models.Customer, int64, error) {
	args := m.Called(ctx, filters)
	return get[[]models.Customer](args, 0), get[int64](args, 1), args.Error(2)
}

func (m *mockCustomerService) Delete(ctx context.Context, id uint, deletedBy string) error {
	return m.Called(ctx, id, deletedBy).Error(0)
}

type mockOrderService struct {
	services.OrderService
	mock.Mock
}

func (m *mockOrderService) Checkout(ctx context.Context, customerID uint, req *models.CheckoutRequest) (*models.Order, error) {
	args := m.Called(ctx, customerID, req)
	return get[*models.Order](args, 0), args.Error(1)
}

func (m *mockOrderService) List(ctx context.Context, filters repository.OrderFilters) ([]models.Order, int64, error) {
	args := m.Called(ctx, filters)
	return get[[]models.Order](args, 0), get[int64](args, 1), args.Error(2)
}

type mockPaymentService struct {
	services.PaymentService
	mock.Mock
}

func (m *mockPaymentService) Confirm(ctx context.Context, id, adminID uint) (*models.Payment, error) {
	args := m.Called(ctx, id, adminID)
	return get[*models.Payment](args, 0), args.Error(1)
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, body []byte) error {
	return m.Called(ctx, body).Error(0)
}

func (m *mockPaymentService) QRCode(ctx context.Context, id uint, viewer services.Viewer) ([]byte, error) {
	args := m.Called(ctx, id, viewer)
	return get[[]byte](args, 0), args.Error(1)
}

type mockRecoveryService struct {
	services.RecoveryService
	mock.Mock
}

func (m *mockRecoveryService) Request(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockRecoveryService) Validate(ctx context.Context, token string) (*models.RecoveryValidation, error) {
	args := m.Called(ctx, token)
	return get[*models.RecoveryValidation](args, 0), args.Error(1)
}

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) WriteOrdersCSV(ctx context.Context, query services.ReportQuery, w io.Writer) error {
	args := m.Called(ctx, query, w)
	if content := args.String(0); content != "" {
		_, _ = io.WriteString(w, content)
	}
	return args.Error(1)
}

type stubJobs struct {
	ran []string
}

func (s *stubJobs) GetStats() map[string]interface{} {
	return map[string]interface{}{"enabled": true, "running": true}
}

func (s *stubJobs) RunNow(name string) error {
	if name != "purge_sessions" {
		return errors.New("unknown job: " + name)
	}
	s.ran = append(s.ran, name)
	return nil
}
