package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/storefront-service/internal/clients/gateway"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"gorm.io/gorm"
)

const testEventsSecret = "test_events_secret"

var paymentClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type paymentFixture struct {
	svc       *paymentService
	m         *mocks
	publisher *recordingPublisher
	notifier  *recordingNotifier
}

func newPaymentFixture(gw CheckoutGateway) *paymentFixture {
	store, m := newMockStore()
	publisher := &recordingPublisher{}
	notifier := &recordingNotifier{}
	svc := NewPaymentService(store, fakeTx{store: store}, gw, notifier, publisher, PaymentOptions{
		EarnRate:     0.05,
		EventsSecret: testEventsSecret,
	}, quietLogger()).(*paymentService)
	svc.now = fixedClock(paymentClock)
	return &paymentFixture{svc: svc, m: m, publisher: publisher, notifier: notifier}
}

func TestComputeAward(t *testing.T) {
	rate := decimal.NewFromFloat(0.05)

	tests := []struct {
		name string
		paid int64
		want int64
	}{
		{"regular purchase", 150000, 7500},
		{"floors fractions", 19999, 999},
		{"fully paid with points", 0, 0},
		{"negative amount", -100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeAward(rate, tt.paid))
		})
	}

	assert.Equal(t, int64(0), ComputeAward(decimal.Zero, 150000))
}

func TestPointsToRedeem(t *testing.T) {
	redeem, err := pointsToRedeem(&models.CreatePaymentRequest{Method: models.PaymentMethodNequi, Points: 500}, 1000, 80000)
	require.NoError(t, err)
	assert.Equal(t, int64(500), redeem)

	redeem, err = pointsToRedeem(&models.CreatePaymentRequest{Method: models.PaymentMethodNequi, Points: 900}, 1000, 600)
	require.NoError(t, err)
	assert.Equal(t, int64(600), redeem, "capped at the order total")

	redeem, err = pointsToRedeem(&models.CreatePaymentRequest{Method: models.PaymentMethodCash, UsePoints: true}, 1000, 80000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), redeem)

	_, err = pointsToRedeem(&models.CreatePaymentRequest{Method: models.PaymentMethodNequi, Points: 1500}, 1000, 80000)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = pointsToRedeem(&models.CreatePaymentRequest{Method: models.PaymentMethodPoints}, 1000, 80000)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestCreatePayment_RedeemMoreThanBalanceRejected(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7), Status: models.OrderStatusToPay, Total: 80000}, nil)
	f.m.customers.On("GetByID", ctx, uint(7)).Return(&models.Customer{ID: 7, Points: 1000}, nil)

	_, err := f.svc.Create(ctx, 7, &models.CreatePaymentRequest{OrderID: 30, Method: models.PaymentMethodNequi, Points: 5000})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	f.m.customers.AssertNotCalled(t, "DeductPoints", mock.Anything, mock.Anything, mock.Anything)
	f.m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePayment_ConcurrentRedeemLosesGuard(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7), Status: models.OrderStatusToPay, Total: 80000}, nil)
	f.m.customers.On("GetByID", ctx, uint(7)).Return(&models.Customer{ID: 7, Points: 1000}, nil)
	f.m.customers.On("DeductPoints", ctx, uint(7), int64(1000)).Return(repository.ErrConditionNotMet)

	_, err := f.svc.Create(ctx, 7, &models.CreatePaymentRequest{OrderID: 30, Method: models.PaymentMethodCash, UsePoints: true})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	f.m.points.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCreatePayment_CashWaitsForConfirmation(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7), Status: models.OrderStatusToPay, Total: 80000}, nil)
	f.m.customers.On("GetByID", ctx, uint(7)).Return(&models.Customer{ID: 7, Points: 0}, nil)
	f.m.payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Payment).ID = 5
	}).Return(nil)
	f.m.orders.On("UpdateStatus", ctx, uint(30), models.OrderStatusPending, (*uint)(nil), []models.OrderStatus{models.OrderStatusToPay}).Return(nil)

	payment, err := f.svc.Create(ctx, 7, &models.CreatePaymentRequest{OrderID: 30, Method: models.PaymentMethodCash})
	require.NoError(t, err)

	assert.Equal(t, int64(80000), payment.Amount)
	assert.False(t, payment.Confirmed)
	assert.Equal(t, []string{events.PaymentCreated}, f.publisher.types())
	f.m.payments.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePayment_FullPointsAutoConfirmsWithoutAward(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	order := &models.Order{
		ID:         30,
		CustomerID: uintPtr(7),
		Status:     models.OrderStatusToPay,
		Total:      8000,
		Customer:   &models.Customer{ID: 7, Email: "ana@example.com", Name: "Ana"},
	}
	f.m.orders.On("GetByID", ctx, uint(30)).Return(order, nil)
	f.m.customers.On("GetByID", ctx, uint(7)).Return(&models.Customer{ID: 7, Points: 10000}, nil)
	f.m.customers.On("DeductPoints", ctx, uint(7), int64(8000)).Return(nil)
	f.m.points.On("Append", ctx, mock.MatchedBy(func(e *models.PointsTransaction) bool {
		return e.Type == models.PointsRedeemed && e.Amount == 8000 && *e.OrderID == 30
	})).Return(nil)
	f.m.orders.On("ApplyPoints", ctx, uint(30), int64(8000)).Return(nil)
	f.m.payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).Return(nil)
	f.m.payments.On("Confirm", ctx, mock.Anything, (*uint)(nil), paymentClock).Return(nil)
	f.m.orders.On("UpdateStatus", ctx, uint(30), models.OrderStatusPaid, (*uint)(nil), mock.Anything).Return(nil)

	payment, err := f.svc.Create(ctx, 7, &models.CreatePaymentRequest{OrderID: 30, Method: models.PaymentMethodNequi, UsePoints: true})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentMethodPoints, payment.Method)
	assert.Equal(t, int64(0), payment.Amount)
	assert.True(t, payment.Confirmed)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.True(t, order.PaidWithPoints)
	f.m.customers.AssertNotCalled(t, "AddPoints", mock.Anything, mock.Anything, mock.Anything)
	f.m.points.AssertNumberOfCalls(t, "Append", 1)
	require.Len(t, f.notifier.confirmations, 1)
	assert.Equal(t, int64(0), f.notifier.confirmations[0].pointsEarned)
	assert.Equal(t, []string{events.PointsRedeemed, events.PaymentCreated, events.PaymentConfirmed}, f.publisher.types())
}

func TestCreatePayment_GatewayCheckout(t *testing.T) {
	gw := &stubGateway{checkout: &gateway.Checkout{Reference: "pedido-30-1", URL: "https://checkout.example/abc"}}
	f := newPaymentFixture(gw)
	ctx := context.Background()

	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7), Status: models.OrderStatusToPay, Total: 80000}, nil)
	f.m.customers.On("GetByID", ctx, uint(7)).Return(&models.Customer{ID: 7, Email: "ana@example.com"}, nil)
	f.m.payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Payment).ID = 5
	}).Return(nil)
	f.m.orders.On("UpdateStatus", ctx, uint(30), models.OrderStatusPending, (*uint)(nil), mock.Anything).Return(nil)
	f.m.payments.On("SetCheckout", ctx, uint(5), "pedido-30-1", "https://checkout.example/abc").Return(nil)

	payment, err := f.svc.Create(ctx, 7, &models.CreatePaymentRequest{OrderID: 30, Method: models.PaymentMethodNequi})
	require.NoError(t, err)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, int64(80000), gw.calls[0].Amount)
	assert.Equal(t, "ana@example.com", gw.calls[0].CustomerEmail)
	assert.Equal(t, "https://checkout.example/abc", payment.CheckoutURL)
	require.NotNil(t, payment.Reference)
	assert.Equal(t, "pedido-30-1", *payment.Reference)
}

func TestCreatePayment_GatewayUnavailable(t *testing.T) {
	f := newPaymentFixture(&stubGateway{err: gateway.ErrUnavailable})
	ctx := context.Background()

	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7), Status: models.OrderStatusToPay, Total: 80000}, nil)
	f.m.customers.On("GetByID", ctx, uint(7)).Return(&models.Customer{ID: 7}, nil)
	f.m.payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).Return(nil)
	f.m.orders.On("UpdateStatus", ctx, uint(30), models.OrderStatusPending, (*uint)(nil), mock.Anything).Return(nil)

	_, err := f.svc.Create(ctx, 7, &models.CreatePaymentRequest{OrderID: 30, Method: models.PaymentMethodDaviplata})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Empty(t, f.publisher.types())
}

func TestCreatePayment_GatewayRejectionHidesDetails(t *testing.T) {
	rejection := fmt.Errorf("gateway returned 422: %s", `{"error":{"type":"INPUT_VALIDATION_ERROR","reference":"pedido-30-1"}}`)
	f := newPaymentFixture(&stubGateway{err: rejection})
	hook := logtest.NewLocal(f.svc.logger)
	ctx := context.Background()

	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7), Status: models.OrderStatusToPay, Total: 80000}, nil)
	f.m.customers.On("GetByID", ctx, uint(7)).Return(&models.Customer{ID: 7}, nil)
	f.m.payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).Return(nil)
	f.m.orders.On("UpdateStatus", ctx, uint(30), models.OrderStatusPending, (*uint)(nil), mock.Anything).Return(nil)

	_, err := f.svc.Create(ctx, 7, &models.CreatePaymentRequest{OrderID: 30, Method: models.PaymentMethodNequi})
	require.ErrorIs(t, err, ErrGatewayFailed)
	assert.Equal(t, ErrGatewayFailed.Error(), err.Error())
	assert.NotContains(t, err.Error(), "INPUT_VALIDATION_ERROR")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, rejection, entry.Data[logrus.ErrorKey])
	assert.Equal(t, uint(30), entry.Data["order_id"])
}

func TestCreatePayment_ExistingPaymentConflicts(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{
		ID: 30, CustomerID: uintPtr(7), Status: models.OrderStatusPending, Payment: &models.Payment{ID: 5},
	}, nil)

	_, err := f.svc.Create(ctx, 7, &models.CreatePaymentRequest{OrderID: 30, Method: models.PaymentMethodCash})
	assert.ErrorIs(t, err, ErrConflict)
}

func expectConfirmation(f *paymentFixture, ctx context.Context, adminID *uint) {
	f.m.payments.On("GetByID", ctx, uint(5)).Return(&models.Payment{ID: 5, OrderID: 30, Method: models.PaymentMethodCash, Amount: 150000}, nil).Once()
	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{
		ID:         30,
		CustomerID: uintPtr(7),
		Status:     models.OrderStatusPending,
		Total:      150000,
		Customer:   &models.Customer{ID: 7, Email: "ana@example.com", Name: "Ana"},
	}, nil)
	f.m.payments.On("Confirm", ctx, uint(5), adminID, paymentClock).Return(nil).Once()
	f.m.orders.On("UpdateStatus", ctx, uint(30), models.OrderStatusPaid, adminID, mock.Anything).Return(nil)
	f.m.customers.On("AddPoints", ctx, uint(7), int64(7500)).Return(nil).Once()
	f.m.points.On("Append", ctx, mock.MatchedBy(func(e *models.PointsTransaction) bool {
		return e.Type == models.PointsEarned && e.Amount == 7500
	})).Return(nil).Once()
}

func TestConfirm_AwardsPointsOnce(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()
	adminID := uintPtr(1)
	expectConfirmation(f, ctx, adminID)

	payment, err := f.svc.Confirm(ctx, 5, 1)
	require.NoError(t, err)
	assert.True(t, payment.Confirmed)
	assert.Equal(t, paymentClock, *payment.ConfirmedAt)
	require.Len(t, f.notifier.confirmations, 1)
	assert.Equal(t, int64(7500), f.notifier.confirmations[0].pointsEarned)

	// second confirmation sees the stored flag
	f.m.payments.On("GetByID", ctx, uint(5)).Return(&models.Payment{ID: 5, OrderID: 30, Confirmed: true, Amount: 150000}, nil).Once()
	_, err = f.svc.Confirm(ctx, 5, 1)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)

	f.m.customers.AssertNumberOfCalls(t, "AddPoints", 1)
	f.m.points.AssertNumberOfCalls(t, "Append", 1)
	assert.Len(t, f.notifier.confirmations, 1)
}

func TestConfirm_LostRaceDoesNotAward(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	f.m.payments.On("GetByID", ctx, uint(5)).Return(&models.Payment{ID: 5, OrderID: 30, Amount: 150000}, nil)
	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7), Status: models.OrderStatusPending}, nil)
	f.m.payments.On("Confirm", ctx, uint(5), mock.Anything, paymentClock).Return(repository.ErrConditionNotMet)

	_, err := f.svc.Confirm(ctx, 5, 1)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	f.m.customers.AssertNotCalled(t, "AddPoints", mock.Anything, mock.Anything, mock.Anything)
	f.m.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirm_CancelledOrderRejected(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	f.m.payments.On("GetByID", ctx, uint(5)).Return(&models.Payment{ID: 5, OrderID: 30}, nil)
	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, Status: models.OrderStatusCancelled}, nil)

	_, err := f.svc.Confirm(ctx, 5, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	f.m.payments.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func signedWebhook(t *testing.T, secret, reference, status string, amountInCents int64) []byte {
	t.Helper()
	timestamp := int64(1760000000)
	raw := fmt.Sprintf("%s%s%d%d%s", reference, status, amountInCents, timestamp, secret)
	sum := sha256.Sum256([]byte(raw))

	body, err := json.Marshal(map[string]interface{}{
		"event": "transaction.updated",
		"data": map[string]interface{}{
			"transaction": map[string]interface{}{
				"id":              "tx-1",
				"reference":       reference,
				"status":          status,
				"amount_in_cents": amountInCents,
			},
		},
		"signature": map[string]interface{}{
			"properties": []string{"transaction.reference", "transaction.status", "transaction.amount_in_cents"},
			"checksum":   hex.EncodeToString(sum[:]),
		},
		"timestamp": timestamp,
	})
	require.NoError(t, err)
	return body
}

func TestHandleWebhook_ApprovedConfirmsThenNoops(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()
	body := signedWebhook(t, testEventsSecret, "pedido-30-1", gateway.StatusApproved, 15000000)

	f.m.payments.On("GetByReference", ctx, "pedido-30-1").Return(&models.Payment{ID: 5, OrderID: 30, Amount: 150000}, nil)
	f.m.payments.On("UpdateGatewayStatus", ctx, uint(5), gateway.StatusApproved).Return(nil)
	expectConfirmation(f, ctx, nil)

	require.NoError(t, f.svc.HandleWebhook(ctx, body))

	// redelivery of the same event
	f.m.payments.On("GetByID", ctx, uint(5)).Return(&models.Payment{ID: 5, OrderID: 30, Confirmed: true}, nil).Once()
	require.NoError(t, f.svc.HandleWebhook(ctx, body))

	f.m.customers.AssertNumberOfCalls(t, "AddPoints", 1)
}

func TestHandleWebhook_DeclinedStoresStatus(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()
	body := signedWebhook(t, testEventsSecret, "pedido-30-1", gateway.StatusDeclined, 15000000)

	f.m.payments.On("GetByReference", ctx, "pedido-30-1").Return(&models.Payment{ID: 5, OrderID: 30, Amount: 150000}, nil)
	f.m.payments.On("UpdateGatewayStatus", ctx, uint(5), gateway.StatusDeclined).Return(nil)

	require.NoError(t, f.svc.HandleWebhook(ctx, body))
	f.m.payments.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_BadChecksum(t *testing.T) {
	f := newPaymentFixture(nil)
	body := signedWebhook(t, "another_secret", "pedido-30-1", gateway.StatusApproved, 15000000)

	err := f.svc.HandleWebhook(context.Background(), body)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestHandleWebhook_UnknownReference(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()
	body := signedWebhook(t, testEventsSecret, "pedido-99-1", gateway.StatusApproved, 100)

	f.m.payments.On("GetByReference", ctx, "pedido-99-1").Return(nil, gorm.ErrRecordNotFound)

	err := f.svc.HandleWebhook(ctx, body)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQRCode_RequiresCheckoutURL(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	f.m.payments.On("GetByID", ctx, uint(5)).Return(&models.Payment{ID: 5, OrderID: 30}, nil).Once()
	_, err := f.svc.QRCode(ctx, 5, AdminViewer(1))
	assert.ErrorIs(t, err, ErrNotFound)

	f.m.payments.On("GetByID", ctx, uint(5)).Return(&models.Payment{ID: 5, OrderID: 30, CheckoutURL: "https://checkout.example/abc"}, nil).Once()
	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7)}, nil)
	png, err := f.svc.QRCode(ctx, 5, CustomerViewer(7))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestGetPayment_HiddenFromOtherCustomers(t *testing.T) {
	f := newPaymentFixture(nil)
	ctx := context.Background()

	f.m.payments.On("GetByID", ctx, uint(5)).Return(&models.Payment{ID: 5, OrderID: 30}, nil)
	f.m.orders.On("GetByID", ctx, uint(30)).Return(&models.Order{ID: 30, CustomerID: uintPtr(7)}, nil)

	_, err := f.svc.Get(ctx, 5, CustomerViewer(8))
	assert.ErrorIs(t, err, ErrNotFound)
}
