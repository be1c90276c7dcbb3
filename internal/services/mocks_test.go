package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/tesseract-hub/storefront-service/internal/clients/gateway"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func uintPtr(v uint) *uint { return &v }

// get returns the i-th mocked value as T, or T's zero value for nil
func get[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

// fakeTx runs the unit of work against the same mocked store
type fakeTx struct {
	store *repository.Store
}

func (f fakeTx) WithinTransaction(ctx context.Context, fn func(tx *repository.Store) error) error {
	return fn(f.store)
}

type mocks struct {
	customers *mockCustomerRepo
	admins    *mockAdminRepo
	addresses *mockAddressRepo
	products  *mockProductRepo
	carts     *mockCartRepo
	designs   *mockDesignRepo
	orders    *mockOrderRepo
	payments  *mockPaymentRepo
	points    *mockPointsRepo
	sessions  *mockSessionRepo
	recovery  *mockRecoveryRepo
}

func newMockStore() (*repository.Store, *mocks) {
	m := &mocks{
		customers: new(mockCustomerRepo),
		admins:    new(mockAdminRepo),
		addresses: new(mockAddressRepo),
		products:  new(mockProductRepo),
		carts:     new(mockCartRepo),
		designs:   new(mockDesignRepo),
		orders:    new(mockOrderRepo),
		payments:  new(mockPaymentRepo),
		points:    new(mockPointsRepo),
		sessions:  new(mockSessionRepo),
		recovery:  new(mockRecoveryRepo),
	}
	store := &repository.Store{
		Customers: m.customers,
		Admins:    m.admins,
		Addresses: m.addresses,
		Products:  m.products,
		Carts:     m.carts,
		Designs:   m.designs,
		Orders:    m.orders,
		Payments:  m.payments,
		Points:    m.points,
		Sessions:  m.sessions,
		Recovery:  m.recovery,
	}
	return store, m
}

// ==========================================
// REPOSITORY MOCKS
// ==========================================

type mockCustomerRepo struct{ mock.Mock }

func (m *mockCustomerRepo) Create(ctx context.Context, customer *models.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	args := m.Called(ctx, id)
	return get[*models.Customer](args, 0), args.Error(1)
}

func (m *mockCustomerRepo) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	args := m.Called(ctx, email)
	return get[*models.Customer](args, 0), args.Error(1)
}

func (m *mockCustomerRepo) EmailExists(ctx context.Context, email string, excludeID uint) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCustomerRepo) Update(ctx context.Context, customer *models.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepo) List(ctx context.Context, filters repository.CustomerFilters) ([]models.Customer, int64, error) {
	args := m.Called(ctx, filters)
	return get[[]models.Customer](args, 0), get[int64](args, 1), args.Error(2)
}

func (m *mockCustomerRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCustomerRepo) AddPoints(ctx context.Context, id uint, amount int64) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *mockCustomerRepo) DeductPoints(ctx context.Context, id uint, amount int64) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *mockCustomerRepo) CreateHistorical(ctx context.Context, historical *models.HistoricalCustomer) error {
	return m.Called(ctx, historical).Error(0)
}

func (m *mockCustomerRepo) HistoricalEmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockAdminRepo struct{ mock.Mock }

func (m *mockAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	return m.Called(ctx, admin).Error(0)
}

func (m *mockAdminRepo) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	args := m.Called(ctx, id)
	return get[*models.Admin](args, 0), args.Error(1)
}

func (m *mockAdminRepo) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	args := m.Called(ctx, email)
	return get[*models.Admin](args, 0), args.Error(1)
}

func (m *mockAdminRepo) EmailExists(ctx context.Context, email string, excludeID uint) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAdminRepo) Update(ctx context.Context, admin *models.Admin) error {
	return m.Called(ctx, admin).Error(0)
}

func (m *mockAdminRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return get[int64](args, 0), args.Error(1)
}

type mockAddressRepo struct{ mock.Mock }

func (m *mockAddressRepo) Create(ctx context.Context, address *models.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *mockAddressRepo) GetByID(ctx context.Context, id uint) (*models.Address, error) {
	args := m.Called(ctx, id)
	return get[*models.Address](args, 0), args.Error(1)
}

func (m *mockAddressRepo) ListByCustomer(ctx context.Context, customerID uint) ([]models.Address, error) {
	args := m.Called(ctx, customerID)
	return get[[]models.Address](args, 0), args.Error(1)
}

func (m *mockAddressRepo) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	args := m.Called(ctx, customerID)
	return get[int64](args, 0), args.Error(1)
}

func (m *mockAddressRepo) GetPreferred(ctx context.Context, customerID uint) (*models.Address, error) {
	args := m.Called(ctx, customerID)
	return get[*models.Address](args, 0), args.Error(1)
}

func (m *mockAddressRepo) Update(ctx context.Context, address *models.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *mockAddressRepo) ClearDefault(ctx context.Context, customerID uint) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *mockAddressRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) Create(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	args := m.Called(ctx, id)
	return get[*models.Product](args, 0), args.Error(1)
}

func (m *mockProductRepo) SKUExists(ctx context.Context, sku string, excludeID uint) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, filters repository.ProductFilters) ([]models.Product, int64, error) {
	args := m.Called(ctx, filters)
	return get[[]models.Product](args, 0), get[int64](args, 1), args.Error(2)
}

func (m *mockProductRepo) Update(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockProductRepo) SetImage(ctx context.Context, id uint, imageURL string) error {
	return m.Called(ctx, id, imageURL).Error(0)
}

func (m *mockProductRepo) DecrementStock(ctx context.Context, id uint, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *mockProductRepo) IncrementStock(ctx context.Context, id uint, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

type mockCartRepo struct{ mock.Mock }

func (m *mockCartRepo) GetOrCreate(ctx context.Context, customerID uint) (*models.Cart, error) {
	args := m.Called(ctx, customerID)
	return get[*models.Cart](args, 0), args.Error(1)
}

func (m *mockCartRepo) GetLine(ctx context.Context, cartID, lineID uint) (*models.CartLine, error) {
	args := m.Called(ctx, cartID, lineID)
	return get[*models.CartLine](args, 0), args.Error(1)
}

func (m *mockCartRepo) FindProductLine(ctx context.Context, cartID, productID uint) (*models.CartLine, error) {
	args := m.Called(ctx, cartID, productID)
	return get[*models.CartLine](args, 0), args.Error(1)
}

func (m *mockCartRepo) DesignInCart(ctx context.Context, cartID, designID uint) (bool, error) {
	args := m.Called(ctx, cartID, designID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCartRepo) CreateLine(ctx context.Context, line *models.CartLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *mockCartRepo) UpdateLine(ctx context.Context, line *models.CartLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *mockCartRepo) DeleteLine(ctx context.Context, cartID, lineID uint) error {
	return m.Called(ctx, cartID, lineID).Error(0)
}

func (m *mockCartRepo) ClearLines(ctx context.Context, cartID uint) error {
	return m.Called(ctx, cartID).Error(0)
}

type mockDesignRepo struct{ mock.Mock }

func (m *mockDesignRepo) Create(ctx context.Context, design *models.CustomDesign) error {
	return m.Called(ctx, design).Error(0)
}

func (m *mockDesignRepo) GetByID(ctx context.Context, id uint) (*models.CustomDesign, error) {
	args := m.Called(ctx, id)
	return get[*models.CustomDesign](args, 0), args.Error(1)
}

func (m *mockDesignRepo) ListByCustomer(ctx context.Context, customerID uint) ([]models.CustomDesign, error) {
	args := m.Called(ctx, customerID)
	return get[[]models.CustomDesign](args, 0), args.Error(1)
}

func (m *mockDesignRepo) List(ctx context.Context, filters repository.DesignFilters) ([]models.CustomDesign, int64, error) {
	args := m.Called(ctx, filters)
	return get[[]models.CustomDesign](args, 0), get[int64](args, 1), args.Error(2)
}

func (m *mockDesignRepo) Update(ctx context.Context, design *models.CustomDesign) error {
	return m.Called(ctx, design).Error(0)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	args := m.Called(ctx, id)
	return get[*models.Order](args, 0), args.Error(1)
}

func (m *mockOrderRepo) ListByCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	args := m.Called(ctx, customerID)
	return get[[]models.Order](args, 0), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, filters repository.OrderFilters) ([]models.Order, int64, error) {
	args := m.Called(ctx, filters)
	return get[[]models.Order](args, 0), get[int64](args, 1), args.Error(2)
}

func (m *mockOrderRepo) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	args := m.Called(ctx, customerID)
	return get[int64](args, 0), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uint, to models.OrderStatus, adminID *uint, from ...models.OrderStatus) error {
	return m.Called(ctx, id, to, adminID, from).Error(0)
}

func (m *mockOrderRepo) ApplyPoints(ctx context.Context, id uint, points int64) error {
	return m.Called(ctx, id, points).Error(0)
}

func (m *mockOrderRepo) DetachCustomer(ctx context.Context, customerID uint) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *mockOrderRepo) ListExpiredUnpaid(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	args := m.Called(ctx, before, limit)
	return get[[]models.Order](args, 0), args.Error(1)
}

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	args := m.Called(ctx, id)
	return get[*models.Payment](args, 0), args.Error(1)
}

func (m *mockPaymentRepo) GetByOrderID(ctx context.Context, orderID uint) (*models.Payment, error) {
	args := m.Called(ctx, orderID)
	return get[*models.Payment](args, 0), args.Error(1)
}

func (m *mockPaymentRepo) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	return get[*models.Payment](args, 0), args.Error(1)
}

func (m *mockPaymentRepo) List(ctx context.Context, filters repository.PaymentFilters) ([]models.Payment, int64, error) {
	args := m.Called(ctx, filters)
	return get[[]models.Payment](args, 0), get[int64](args, 1), args.Error(2)
}

func (m *mockPaymentRepo) Confirm(ctx context.Context, id uint, adminID *uint, at time.Time) error {
	return m.Called(ctx, id, adminID, at).Error(0)
}

func (m *mockPaymentRepo) SetCheckout(ctx context.Context, id uint, reference, checkoutURL string) error {
	return m.Called(ctx, id, reference, checkoutURL).Error(0)
}

func (m *mockPaymentRepo) UpdateGatewayStatus(ctx context.Context, id uint, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockPointsRepo struct{ mock.Mock }

func (m *mockPointsRepo) Append(ctx context.Context, entry *models.PointsTransaction) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockPointsRepo) ListByCustomer(ctx context.Context, customerID uint) ([]models.PointsTransaction, error) {
	args := m.Called(ctx, customerID)
	return get[[]models.PointsTransaction](args, 0), args.Error(1)
}

func (m *mockPointsRepo) SumForOrder(ctx context.Context, orderID uint, kind models.PointsTransactionType) (int64, error) {
	args := m.Called(ctx, orderID, kind)
	return get[int64](args, 0), args.Error(1)
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	return get[*models.Session](args, 0), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionRepo) DeleteByPrincipal(ctx context.Context, principalType models.PrincipalType, principalID uint) ([]string, error) {
	args := m.Called(ctx, principalType, principalID)
	return get[[]string](args, 0), args.Error(1)
}

func (m *mockSessionRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return get[int64](args, 0), args.Error(1)
}

type mockRecoveryRepo struct{ mock.Mock }

func (m *mockRecoveryRepo) Create(ctx context.Context, request *models.RecoveryRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *mockRecoveryRepo) GetByToken(ctx context.Context, token string) (*models.RecoveryRequest, error) {
	args := m.Called(ctx, token)
	return get[*models.RecoveryRequest](args, 0), args.Error(1)
}

func (m *mockRecoveryRepo) MarkUsed(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRecoveryRepo) InvalidateForCustomer(ctx context.Context, customerID uint) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *mockRecoveryRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return get[int64](args, 0), args.Error(1)
}

type mockReportRepo struct{ mock.Mock }

func (m *mockReportRepo) SalesBetween(ctx context.Context, from, to time.Time) (int64, error) {
	args := m.Called(ctx, from, to)
	return get[int64](args, 0), args.Error(1)
}

func (m *mockReportRepo) CountActiveCustomers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return get[int64](args, 0), args.Error(1)
}

func (m *mockReportRepo) CountOrdersSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return get[int64](args, 0), args.Error(1)
}

func (m *mockReportRepo) TopProducts(ctx context.Context, limit int) ([]models.ProductSales, error) {
	args := m.Called(ctx, limit)
	return get[[]models.ProductSales](args, 0), args.Error(1)
}

func (m *mockReportRepo) RecentOrders(ctx context.Context, limit int) ([]models.RecentOrder, error) {
	args := m.Called(ctx, limit)
	return get[[]models.RecentOrder](args, 0), args.Error(1)
}

func (m *mockReportRepo) OrdersSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	args := m.Called(ctx, since)
	return get[[]models.Order](args, 0), args.Error(1)
}

func (m *mockReportRepo) OrderLines(ctx context.Context, filters repository.ReportFilters) ([]models.OrderReportRow, error) {
	args := m.Called(ctx, filters)
	return get[[]models.OrderReportRow](args, 0), args.Error(1)
}

// ==========================================
// COLLABORATOR FAKES
// ==========================================

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type sentConfirmation struct {
	email        string
	orderID      uint
	amount       int64
	pointsEarned int64
}

type recordingNotifier struct {
	tokens        []string
	confirmations []sentConfirmation
}

func (n *recordingNotifier) SendRecoveryToken(ctx context.Context, email, name, token string, expiresAt time.Time) {
	n.tokens = append(n.tokens, token)
}

func (n *recordingNotifier) SendPaymentConfirmed(ctx context.Context, email, name string, orderID uint, amount, pointsEarned int64) {
	n.confirmations = append(n.confirmations, sentConfirmation{email, orderID, amount, pointsEarned})
}

type stubGateway struct {
	checkout *gateway.Checkout
	err      error
	calls    []gateway.CheckoutRequest
}

func (g *stubGateway) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	g.calls = append(g.calls, req)
	return g.checkout, g.err
}

type mockSessionService struct{ mock.Mock }

func (m *mockSessionService) Create(ctx context.Context, principalType models.PrincipalType, principalID uint, ipAddress, userAgent string) (*models.Session, error) {
	args := m.Called(ctx, principalType, principalID, ipAddress, userAgent)
	return get[*models.Session](args, 0), args.Error(1)
}

func (m *mockSessionService) Resolve(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	return get[*models.Session](args, 0), args.Error(1)
}

func (m *mockSessionService) Revoke(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionService) RevokeAll(ctx context.Context, principalType models.PrincipalType, principalID uint) error {
	return m.Called(ctx, principalType, principalID).Error(0)
}

func (m *mockSessionService) Evict(ctx context.Context, ids ...string) {
	m.Called(ctx, ids)
}

func (m *mockSessionService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return get[int64](args, 0), args.Error(1)
}
