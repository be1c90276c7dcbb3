package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"gorm.io/gorm"
)

func newTestOrderService(store *repository.Store, publisher events.Publisher) *orderService {
	svc := NewOrderService(store, fakeTx{store: store}, publisher, 72*time.Hour, quietLogger()).(*orderService)
	svc.now = fixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	return svc
}

func TestCheckout_DecrementsStock(t *testing.T) {
	store, m := newMockStore()
	publisher := &recordingPublisher{}
	svc := newTestOrderService(store, publisher)
	ctx := context.Background()

	product := &models.Product{ID: 1, Name: "Anillo Luna", Price: 120000, Stock: 5, Active: true}
	cart := &models.Cart{ID: 9, CustomerID: 7, Lines: []models.CartLine{
		{ID: 1, CartID: 9, ProductID: uintPtr(1), Quantity: 3, UnitPrice: 120000, Subtotal: 360000, Product: product},
	}}

	m.carts.On("GetOrCreate", ctx, uint(7)).Return(cart, nil)
	m.addresses.On("GetPreferred", ctx, uint(7)).Return(&models.Address{ID: 4, CustomerID: 7, IsDefault: true}, nil)
	m.products.On("DecrementStock", ctx, uint(1), 3).Run(func(args mock.Arguments) {
		product.Stock -= args.Int(2)
	}).Return(nil)
	m.orders.On("Create", ctx, mock.AnythingOfType("*models.Order")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Order).ID = 55
	}).Return(nil)
	m.carts.On("ClearLines", ctx, uint(9)).Return(nil)

	order, err := svc.Checkout(ctx, 7, &models.CheckoutRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2, product.Stock)
	assert.Equal(t, uint(55), order.ID)
	assert.Equal(t, models.OrderStatusToPay, order.Status)
	assert.Equal(t, int64(360000), order.Total)
	assert.Equal(t, uint(4), *order.AddressID)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Anillo Luna", order.Lines[0].Description)
	assert.Equal(t, 3, order.Lines[0].Quantity)
	assert.Equal(t, []string{events.OrderCreated}, publisher.types())
	m.carts.AssertExpectations(t)
}

func TestCheckout_EmptyCart(t *testing.T) {
	store, m := newMockStore()
	svc := newTestOrderService(store, &recordingPublisher{})
	ctx := context.Background()

	m.carts.On("GetOrCreate", ctx, uint(7)).Return(&models.Cart{ID: 9, CustomerID: 7}, nil)

	_, err := svc.Checkout(ctx, 7, &models.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_InsufficientStockRollsBack(t *testing.T) {
	store, m := newMockStore()
	publisher := &recordingPublisher{}
	svc := newTestOrderService(store, publisher)
	ctx := context.Background()

	product := &models.Product{ID: 1, Name: "Collar Sol", Price: 90000, Stock: 1, Active: true}
	cart := &models.Cart{ID: 9, CustomerID: 7, Lines: []models.CartLine{
		{ID: 1, CartID: 9, ProductID: uintPtr(1), Quantity: 2, UnitPrice: 90000, Subtotal: 180000, Product: product},
	}}
	m.carts.On("GetOrCreate", ctx, uint(7)).Return(cart, nil)
	m.addresses.On("GetPreferred", ctx, uint(7)).Return(&models.Address{ID: 4, CustomerID: 7}, nil)
	m.products.On("DecrementStock", ctx, uint(1), 2).Return(repository.ErrConditionNotMet)

	_, err := svc.Checkout(ctx, 7, &models.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.carts.AssertNotCalled(t, "ClearLines", mock.Anything, mock.Anything)
	assert.Empty(t, publisher.types())
}

func TestCheckout_RequiresAddress(t *testing.T) {
	store, m := newMockStore()
	svc := newTestOrderService(store, &recordingPublisher{})
	ctx := context.Background()

	cart := &models.Cart{ID: 9, CustomerID: 7, Lines: []models.CartLine{
		{ID: 1, DesignID: uintPtr(3), Quantity: 1, UnitPrice: 50000, Subtotal: 50000, IsCustom: true},
	}}
	m.carts.On("GetOrCreate", ctx, uint(7)).Return(cart, nil)
	m.addresses.On("GetPreferred", ctx, uint(7)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Checkout(ctx, 7, &models.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckout_RejectsForeignAddress(t *testing.T) {
	store, m := newMockStore()
	svc := newTestOrderService(store, &recordingPublisher{})
	ctx := context.Background()

	cart := &models.Cart{ID: 9, CustomerID: 7, Lines: []models.CartLine{
		{ID: 1, DesignID: uintPtr(3), Quantity: 1, UnitPrice: 50000, Subtotal: 50000, IsCustom: true},
	}}
	m.carts.On("GetOrCreate", ctx, uint(7)).Return(cart, nil)
	m.addresses.On("GetByID", ctx, uint(12)).Return(&models.Address{ID: 12, CustomerID: 99}, nil)

	_, err := svc.Checkout(ctx, 7, &models.CheckoutRequest{AddressID: uintPtr(12)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancel_RestocksAndRefundsPoints(t *testing.T) {
	store, m := newMockStore()
	publisher := &recordingPublisher{}
	svc := newTestOrderService(store, publisher)
	ctx := context.Background()

	order := &models.Order{
		ID:         30,
		CustomerID: uintPtr(7),
		Status:     models.OrderStatusPending,
		Total:      100000,
		PointsUsed: 2000,
		Lines: []models.OrderLine{
			{ProductID: uintPtr(1), Quantity: 2},
			{DesignID: uintPtr(3), Quantity: 1, IsCustom: true},
		},
		Payment: &models.Payment{ID: 5, OrderID: 30, Confirmed: false},
	}
	m.orders.On("GetByID", ctx, uint(30)).Return(order, nil)
	m.orders.On("UpdateStatus", ctx, uint(30), models.OrderStatusCancelled, (*uint)(nil), mock.Anything).Return(nil)
	m.products.On("IncrementStock", ctx, uint(1), 2).Return(nil)
	m.customers.On("AddPoints", ctx, uint(7), int64(2000)).Return(nil)
	m.points.On("Append", ctx, mock.MatchedBy(func(e *models.PointsTransaction) bool {
		return e.Type == models.PointsEarned && e.Amount == 2000 && e.Description == "Reintegro pedido #30"
	})).Return(nil)

	cancelled, err := svc.Cancel(ctx, 7, 30)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	m.products.AssertNumberOfCalls(t, "IncrementStock", 1)
	m.customers.AssertExpectations(t)
	m.points.AssertExpectations(t)
	assert.Equal(t, []string{events.OrderCancelled, events.PointsEarned}, publisher.types())
}

func TestCancel_ConfirmedPaymentRejected(t *testing.T) {
	store, m := newMockStore()
	svc := newTestOrderService(store, &recordingPublisher{})
	ctx := context.Background()

	order := &models.Order{
		ID:         30,
		CustomerID: uintPtr(7),
		Status:     models.OrderStatusPending,
		Payment:    &models.Payment{ID: 5, Confirmed: true},
	}
	m.orders.On("GetByID", ctx, uint(30)).Return(order, nil)

	_, err := svc.Cancel(ctx, 7, 30)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	m.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_OtherCustomersOrderIsHidden(t *testing.T) {
	store, m := newMockStore()
	svc := newTestOrderService(store, &recordingPublisher{})
	ctx := context.Background()

	m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(8), Status: models.OrderStatusToPay}, nil)

	_, err := svc.Cancel(ctx, 7, 30)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_PaidOnlyThroughConfirmation(t *testing.T) {
	store, _ := newMockStore()
	svc := newTestOrderService(store, &recordingPublisher{})

	_, err := svc.UpdateStatus(context.Background(), 30, 1, models.OrderStatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(context.Background(), 30, 1, models.OrderStatus("ENVIADO"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateStatus_PendingFromToPay(t *testing.T) {
	store, m := newMockStore()
	publisher := &recordingPublisher{}
	svc := newTestOrderService(store, publisher)
	ctx := context.Background()

	m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, Status: models.OrderStatusPaid}, nil)
	m.orders.On("UpdateStatus", ctx, uint(30), models.OrderStatusPending, mock.Anything, []models.OrderStatus{models.OrderStatusToPay}).
		Return(repository.ErrConditionNotMet)

	_, err := svc.UpdateStatus(ctx, 30, 1, models.OrderStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, publisher.types())
}

func TestExpireUnpaid_CancelsStaleOrders(t *testing.T) {
	store, m := newMockStore()
	svc := newTestOrderService(store, &recordingPublisher{})
	ctx := context.Background()

	cutoff := svc.now().Add(-72 * time.Hour)
	m.orders.On("ListExpiredUnpaid", ctx, cutoff, expireBatchSize).Return([]models.Order{{ID: 1}, {ID: 2}}, nil)
	m.orders.On("GetByID", ctx, uint(1)).Return(&models.Order{ID: 1, Status: models.OrderStatusToPay}, nil)
	m.orders.On("GetByID", ctx, uint(2)).Return(&models.Order{ID: 2, Status: models.OrderStatusPaid}, nil)
	m.orders.On("UpdateStatus", ctx, uint(1), models.OrderStatusCancelled, (*uint)(nil), mock.Anything).Return(nil)

	expired, err := svc.ExpireUnpaid(ctx)
	assert.Equal(t, int64(1), expired)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
