package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/clients/gateway"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/health"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

// PaymentService opens, confirms and reports order payments
type PaymentService interface {
	Create(ctx context.Context, customerID uint, req *models.CreatePaymentRequest) (*models.Payment, error)
	Confirm(ctx context.Context, id, adminID uint) (*models.Payment, error)
	// HandleWebhook applies a checksum-verified gateway event
	HandleWebhook(ctx context.Context, body []byte) error
	List(ctx context.Context, filters repository.PaymentFilters) ([]models.Payment, int64, error)
	Get(ctx context.Context, id uint, viewer Viewer) (*models.Payment, error)
	// QRCode renders the checkout URL of a payment as a PNG
	QRCode(ctx context.Context, id uint, viewer Viewer) ([]byte, error)
}

// PaymentOptions configures loyalty and webhook handling
type PaymentOptions struct {
	EarnRate     float64
	EventsSecret string
}

type paymentService struct {
	store        *repository.Store
	tx           repository.TxManager
	gateway      CheckoutGateway
	notifier     Notifier
	publisher    events.Publisher
	earnRate     decimal.Decimal
	eventsSecret string
	logger       *logrus.Logger
	now          func() time.Time
}

// NewPaymentService creates a new payment service; gw is nil when the gateway is disabled
func NewPaymentService(
	store *repository.Store,
	tx repository.TxManager,
	gw CheckoutGateway,
	notifier Notifier,
	publisher events.Publisher,
	opts PaymentOptions,
	logger *logrus.Logger,
) PaymentService {
	return &paymentService{
		store:        store,
		tx:           tx,
		gateway:      gw,
		notifier:     notifier,
		publisher:    publisher,
		earnRate:     decimal.NewFromFloat(opts.EarnRate),
		eventsSecret: opts.EventsSecret,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *paymentService) Create(ctx context.Context, customerID uint, req *models.CreatePaymentRequest) (*models.Payment, error) {
	if !req.Method.IsValid() {
		return nil, validation("unknown payment method %q", req.Method)
	}
	if req.Points < 0 {
		return nil, validation("points must not be negative")
	}

	var (
		payment       *models.Payment
		order         *models.Order
		redeemed      *models.PointsTransaction
		award         *models.PointsTransaction
		autoConfirmed bool
	)

	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		var err error
		order, err = tx.Orders.GetByID(ctx, req.OrderID)
		if err != nil {
			return notFound(err, "order")
		}
		if !CustomerViewer(customerID).CanSee(order.CustomerID) {
			return fmt.Errorf("order: %w", ErrNotFound)
		}
		if order.Payment != nil {
			return fmt.Errorf("order %d already has a payment: %w", order.ID, ErrConflict)
		}
		if order.Status != models.OrderStatusToPay {
			return fmt.Errorf("order %d is %s: %w", order.ID, order.Status, ErrInvalidTransition)
		}

		customer, err := tx.Customers.GetByID(ctx, customerID)
		if err != nil {
			return notFound(err, "customer")
		}

		redeem, err := pointsToRedeem(req, customer.Points, order.Total)
		if err != nil {
			return err
		}
		if redeem > 0 {
			orderID := order.ID
			redeemed, err = redeemPoints(ctx, tx, customerID, redeem, &orderID, fmt.Sprintf("Canje pedido #%d", order.ID))
			if err != nil {
				return err
			}
			if err := tx.Orders.ApplyPoints(ctx, order.ID, redeem); err != nil {
				return fmt.Errorf("failed to apply points: %w", err)
			}
			order.PointsUsed = redeem
			order.PaidWithPoints = true
		}

		amount := order.AmountDue()
		if amount == 0 {
			payment = &models.Payment{
				OrderID: order.ID,
				Method:  models.PaymentMethodPoints,
				PaidAt:  s.now(),
			}
			if err := tx.Payments.Create(ctx, payment); err != nil {
				return duplicate(err, "payment")
			}
			autoConfirmed = true
			award, err = s.confirmInTx(ctx, tx, payment, order, nil)
			return err
		}

		payment = &models.Payment{
			OrderID: order.ID,
			Method:  req.Method,
			Amount:  amount,
			PaidAt:  s.now(),
		}
		if err := tx.Payments.Create(ctx, payment); err != nil {
			return duplicate(err, "payment")
		}
		if err := tx.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, nil, models.OrderStatusToPay); err != nil {
			if conditionNotMet(err) {
				return fmt.Errorf("order %d changed concurrently: %w", order.ID, ErrInvalidTransition)
			}
			return fmt.Errorf("failed to update order: %w", err)
		}
		order.Status = models.OrderStatusPending

		if !req.Method.UsesGateway() || s.gateway == nil {
			return nil
		}
		checkout, err := s.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
			OrderID:       order.ID,
			Amount:        amount,
			CustomerEmail: customer.Email,
			Method:        req.Method,
		})
		if err != nil {
			return s.gatewayError(err, order.ID, req.Method)
		}
		if err := tx.Payments.SetCheckout(ctx, payment.ID, checkout.Reference, checkout.URL); err != nil {
			return duplicate(err, "payment reference")
		}
		payment.Reference = &checkout.Reference
		payment.CheckoutURL = checkout.URL
		return nil
	})
	if err != nil {
		health.RecordPayment("create", string(req.Method), false)
		return nil, err
	}

	health.RecordPayment("create", string(payment.Method), true)
	publishPoints(ctx, s.publisher, redeemed)
	s.publisher.Publish(ctx, events.PaymentCreated, paymentEventData(payment, order))
	s.logger.WithFields(logrus.Fields{
		"payment_id":  payment.ID,
		"order_id":    order.ID,
		"method":      payment.Method,
		"amount":      payment.Amount,
		"points_used": order.PointsUsed,
	}).Info("Payment created")

	if autoConfirmed {
		s.afterConfirm(ctx, payment, order, award)
	}
	return payment, nil
}

// pointsToRedeem resolves how many points a payment request redeems against the order total
func pointsToRedeem(req *models.CreatePaymentRequest, balance, total int64) (int64, error) {
	var redeem int64
	switch {
	case req.Points > 0:
		if req.Points > balance {
			return 0, fmt.Errorf("requested %d points with a balance of %d: %w", req.Points, balance, ErrInsufficientPoints)
		}
		redeem = min(req.Points, total)
	case req.UsePoints || req.Method == models.PaymentMethodPoints:
		redeem = min(balance, total)
	}

	if req.Method == models.PaymentMethodPoints && redeem < total {
		return 0, fmt.Errorf("points do not cover the order total: %w", ErrInsufficientPoints)
	}
	return redeem, nil
}

// gatewayError logs the gateway's reply and hands the caller a fixed message
func (s *paymentService) gatewayError(err error, orderID uint, method models.PaymentMethod) error {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"order_id": orderID,
		"method":   method,
	}).Error("Payment gateway rejected checkout")

	if errors.Is(err, gateway.ErrUnavailable) {
		return ErrGatewayUnavailable
	}
	return ErrGatewayFailed
}

func paymentEventData(payment *models.Payment, order *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"pagoID":     payment.ID,
		"pedidoID":   order.ID,
		"clienteID":  order.CustomerID,
		"metodo":     payment.Method,
		"monto":      payment.Amount,
		"confirmado": payment.Confirmed,
	}
}

func (s *paymentService) Confirm(ctx context.Context, id, adminID uint) (*models.Payment, error) {
	return s.confirm(ctx, id, &adminID)
}

// confirm is the single confirmation path shared by admins, the webhook and full-points payments
func (s *paymentService) confirm(ctx context.Context, id uint, adminID *uint) (*models.Payment, error) {
	var (
		payment *models.Payment
		order   *models.Order
		award   *models.PointsTransaction
	)

	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		var err error
		payment, err = tx.Payments.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "payment")
		}
		if payment.Confirmed {
			return ErrAlreadyConfirmed
		}
		order, err = tx.Orders.GetByID(ctx, payment.OrderID)
		if err != nil {
			return notFound(err, "order")
		}
		award, err = s.confirmInTx(ctx, tx, payment, order, adminID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyConfirmed) && payment != nil {
			health.RecordPayment("confirm", string(payment.Method), false)
		}
		return nil, err
	}

	s.afterConfirm(ctx, payment, order, award)
	return payment, nil
}

// confirmInTx flips the payment to confirmed exactly once, marks the order paid and awards points
func (s *paymentService) confirmInTx(ctx context.Context, tx *repository.Store, payment *models.Payment, order *models.Order, adminID *uint) (*models.PointsTransaction, error) {
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("order %d is cancelled: %w", order.ID, ErrInvalidTransition)
	}

	at := s.now()
	if err := tx.Payments.Confirm(ctx, payment.ID, adminID, at); err != nil {
		if conditionNotMet(err) {
			return nil, ErrAlreadyConfirmed
		}
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
	payment.Confirmed = true
	payment.ConfirmedAt = &at
	payment.AdminID = adminID

	if err := tx.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusPaid, adminID, models.OrderStatusToPay, models.OrderStatusPending); err != nil {
		if conditionNotMet(err) {
			return nil, fmt.Errorf("order %d is %s: %w", order.ID, order.Status, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	order.Status = models.OrderStatusPaid

	points := ComputeAward(s.earnRate, payment.Amount)
	if points <= 0 || order.CustomerID == nil {
		return nil, nil
	}
	orderID := order.ID
	return earnPoints(ctx, tx, *order.CustomerID, points, &orderID, fmt.Sprintf("Compra pedido #%d", order.ID))
}

// afterConfirm emits the post-commit side effects of a confirmation
func (s *paymentService) afterConfirm(ctx context.Context, payment *models.Payment, order *models.Order, award *models.PointsTransaction) {
	var earned int64
	if award != nil {
		earned = award.Amount
	}

	health.RecordPayment("confirm", string(payment.Method), true)
	health.RecordOrderEvent("paid", order.Total)
	s.publisher.Publish(ctx, events.PaymentConfirmed, paymentEventData(payment, order))
	publishPoints(ctx, s.publisher, award)

	if order.Customer != nil {
		s.notifier.SendPaymentConfirmed(ctx, order.Customer.Email, order.Customer.Name, order.ID, order.Total, earned)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id":    payment.ID,
		"order_id":      order.ID,
		"points_earned": earned,
	}).Info("Payment confirmed")
}

func (s *paymentService) HandleWebhook(ctx context.Context, body []byte) error {
	if s.eventsSecret == "" {
		return fmt.Errorf("webhook secret not configured: %w", ErrInvalidSignature)
	}

	event, err := gateway.ParseEvent(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := event.Verify(s.eventsSecret); err != nil {
		s.logger.WithError(err).Warn("Rejected gateway event with invalid checksum")
		return ErrInvalidSignature
	}
	txn, err := event.Transaction()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	payment, err := s.store.Payments.GetByReference(ctx, txn.Reference)
	if err != nil {
		return notFound(err, "payment")
	}

	logger := s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"reference":  txn.Reference,
		"status":     txn.Status,
	})

	if txn.Status != gateway.StatusApproved {
		if err := s.store.Payments.UpdateGatewayStatus(ctx, payment.ID, txn.Status); err != nil {
			return fmt.Errorf("failed to store gateway status: %w", err)
		}
		if txn.Status != gateway.StatusPending {
			health.RecordPayment("webhook", string(payment.Method), false)
		}
		logger.Info("Gateway transaction not approved")
		return nil
	}

	if txn.AmountInCents != 0 && txn.AmountInCents != payment.Amount*100 {
		logger.WithField("amount_in_cents", txn.AmountInCents).Warn("Gateway amount does not match payment")
		return validation("transaction amount does not match the payment")
	}
	if err := s.store.Payments.UpdateGatewayStatus(ctx, payment.ID, txn.Status); err != nil {
		return fmt.Errorf("failed to store gateway status: %w", err)
	}

	if _, err := s.confirm(ctx, payment.ID, nil); err != nil {
		if errors.Is(err, ErrAlreadyConfirmed) {
			logger.Debug("Gateway approval for an already confirmed payment")
			return nil
		}
		return err
	}
	return nil
}

func (s *paymentService) List(ctx context.Context, filters repository.PaymentFilters) ([]models.Payment, int64, error) {
	if filters.Method != "" && !filters.Method.IsValid() {
		return nil, 0, validation("unknown payment method %q", filters.Method)
	}
	filters.Normalize()
	return s.store.Payments.List(ctx, filters)
}

func (s *paymentService) Get(ctx context.Context, id uint, viewer Viewer) (*models.Payment, error) {
	payment, err := s.store.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	if viewer.IsAdmin() {
		return payment, nil
	}

	order, err := s.store.Orders.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !viewer.CanSee(order.CustomerID) {
		return nil, fmt.Errorf("payment: %w", ErrNotFound)
	}
	return payment, nil
}

func (s *paymentService) QRCode(ctx context.Context, id uint, viewer Viewer) ([]byte, error) {
	payment, err := s.Get(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if payment.CheckoutURL == "" {
		return nil, fmt.Errorf("payment %d has no checkout url: %w", id, ErrNotFound)
	}
	return renderQR(payment.CheckoutURL, qrSize)
}
