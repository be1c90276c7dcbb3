package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/health"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

const expireBatchSize = 100

// OrderService converts carts into orders and drives the order lifecycle
type OrderService interface {
	Checkout(ctx context.Context, customerID uint, req *models.CheckoutRequest) (*models.Order, error)
	ListMine(ctx context.Context, customerID uint) ([]models.Order, error)
	GetMine(ctx context.Context, customerID, id uint) (*models.Order, error)
	Cancel(ctx context.Context, customerID, id uint) (*models.Order, error)

	// Admin operations
	List(ctx context.Context, filters repository.OrderFilters) ([]models.Order, int64, error)
	Get(ctx context.Context, id uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, id, adminID uint, status models.OrderStatus) (*models.Order, error)

	// ExpireUnpaid cancels unpaid orders older than the configured TTL
	ExpireUnpaid(ctx context.Context) (int64, error)
}

type orderService struct {
	store     *repository.Store
	tx        repository.TxManager
	publisher events.Publisher
	unpaidTTL time.Duration
	logger    *logrus.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(store *repository.Store, tx repository.TxManager, publisher events.Publisher, unpaidTTL time.Duration, logger *logrus.Logger) OrderService {
	return &orderService{
		store:     store,
		tx:        tx,
		publisher: publisher,
		unpaidTTL: unpaidTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *orderService) Checkout(ctx context.Context, customerID uint, req *models.CheckoutRequest) (*models.Order, error) {
	var order *models.Order

	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		cart, err := tx.Carts.GetOrCreate(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(cart.Lines) == 0 {
			return ErrEmptyCart
		}

		address, err := s.shippingAddress(ctx, tx, customerID, req.AddressID)
		if err != nil {
			return err
		}

		order = &models.Order{
			CustomerID: &customerID,
			AddressID:  &address.ID,
			Status:     models.OrderStatusToPay,
			Lines:      make([]models.OrderLine, 0, len(cart.Lines)),
		}

		for i := range cart.Lines {
			line := &cart.Lines[i]
			if line.ProductID != nil {
				if line.Product == nil || !line.Product.Active {
					return validation("product %d is no longer available", *line.ProductID)
				}
				if err := tx.Products.DecrementStock(ctx, *line.ProductID, line.Quantity); err != nil {
					if conditionNotMet(err) {
						return fmt.Errorf("not enough stock for %s: %w", line.Product.Name, ErrInsufficientStock)
					}
					return fmt.Errorf("failed to reserve stock: %w", err)
				}
			}

			line.Recalculate()
			order.Lines = append(order.Lines, models.OrderLine{
				ProductID:   line.ProductID,
				DesignID:    line.DesignID,
				Description: line.Description(),
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Subtotal:    line.Subtotal,
				IsCustom:    line.IsCustom,
			})
		}
		order.Total = order.LinesTotal()

		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Carts.ClearLines(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to empty cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	health.RecordOrderEvent("created", order.Total)
	s.publisher.Publish(ctx, events.OrderCreated, orderEventData(order))
	s.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"customer_id": customerID,
		"total":       order.Total,
		"lines":       len(order.Lines),
	}).Info("Order created")
	return order, nil
}

// shippingAddress resolves the requested address, else the customer's default or first one
func (s *orderService) shippingAddress(ctx context.Context, tx *repository.Store, customerID uint, addressID *uint) (*models.Address, error) {
	if addressID != nil {
		address, err := ownedAddress(ctx, tx, customerID, *addressID)
		if errors.Is(err, ErrNotFound) {
			return nil, validation("shipping address %d not found", *addressID)
		}
		return address, err
	}

	address, err := tx.Addresses.GetPreferred(ctx, customerID)
	if err != nil {
		if isNotFound(err) {
			return nil, validation("a shipping address is required")
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	return address, nil
}

func orderEventData(order *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"pedidoID":  order.ID,
		"clienteID": order.CustomerID,
		"total":     order.Total,
		"estado":    order.Status,
	}
}

func (s *orderService) ListMine(ctx context.Context, customerID uint) ([]models.Order, error) {
	return s.store.Orders.ListByCustomer(ctx, customerID)
}

func (s *orderService) GetMine(ctx context.Context, customerID, id uint) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CustomerViewer(customerID).CanSee(order.CustomerID) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	return order, nil
}

func (s *orderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filters repository.OrderFilters) ([]models.Order, int64, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, 0, validation("unknown order status %q", filters.Status)
	}
	filters.Normalize()
	return s.store.Orders.List(ctx, filters)
}

func (s *orderService) Cancel(ctx context.Context, customerID, id uint) (*models.Order, error) {
	return s.cancel(ctx, id, func(order *models.Order) error {
		if !CustomerViewer(customerID).CanSee(order.CustomerID) {
			return fmt.Errorf("order: %w", ErrNotFound)
		}
		return nil
	}, nil)
}

func (s *orderService) UpdateStatus(ctx context.Context, id, adminID uint, status models.OrderStatus) (*models.Order, error) {
	switch status {
	case models.OrderStatusCancelled:
		return s.cancel(ctx, id, nil, &adminID)
	case models.OrderStatusPending:
		order, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.store.Orders.UpdateStatus(ctx, id, models.OrderStatusPending, &adminID, models.OrderStatusToPay); err != nil {
			if conditionNotMet(err) {
				return nil, fmt.Errorf("order %d is %s: %w", id, order.Status, ErrInvalidTransition)
			}
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
		order.Status = models.OrderStatusPending
		order.AdminID = &adminID

		s.publisher.Publish(ctx, events.OrderStatusChanged, orderEventData(order))
		return order, nil
	case models.OrderStatusPaid:
		return nil, fmt.Errorf("orders are marked paid by confirming their payment: %w", ErrInvalidTransition)
	default:
		if status.IsValid() {
			return nil, fmt.Errorf("cannot move an order to %s: %w", status, ErrInvalidTransition)
		}
		return nil, validation("unknown order status %q", status)
	}
}

// cancel runs cancelOrder in a transaction and emits the side effects after commit
func (s *orderService) cancel(ctx context.Context, id uint, authorize func(*models.Order) error, adminID *uint) (*models.Order, error) {
	var (
		order  *models.Order
		refund *models.PointsTransaction
	)

	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		var err error
		order, err = tx.Orders.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		if authorize != nil {
			if err := authorize(order); err != nil {
				return err
			}
		}
		refund, err = cancelOrder(ctx, tx, order, adminID)
		return err
	})
	if err != nil {
		return nil, err
	}

	health.RecordOrderEvent("cancelled", order.Total)
	s.publisher.Publish(ctx, events.OrderCancelled, orderEventData(order))
	publishPoints(ctx, s.publisher, refund)
	s.logger.WithFields(logrus.Fields{
		"order_id":        order.ID,
		"points_refunded": order.PointsUsed,
	}).Info("Order cancelled")
	return order, nil
}

// cancelOrder cancels an unpaid order, restocks its products and refunds redeemed points
func cancelOrder(ctx context.Context, tx *repository.Store, order *models.Order, adminID *uint) (*models.PointsTransaction, error) {
	if !order.Status.Cancellable() {
		return nil, fmt.Errorf("order %d is %s: %w", order.ID, order.Status, ErrInvalidTransition)
	}
	if order.Payment != nil && order.Payment.Confirmed {
		return nil, fmt.Errorf("order %d has a confirmed payment: %w", order.ID, ErrInvalidTransition)
	}

	err := tx.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled, adminID, models.OrderStatusToPay, models.OrderStatusPending)
	if err != nil {
		if conditionNotMet(err) {
			return nil, fmt.Errorf("order %d changed concurrently: %w", order.ID, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	order.Status = models.OrderStatusCancelled
	if adminID != nil {
		order.AdminID = adminID
	}

	for _, line := range order.Lines {
		if line.ProductID == nil {
			continue
		}
		if err := tx.Products.IncrementStock(ctx, *line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if order.PointsUsed <= 0 || order.CustomerID == nil {
		return nil, nil
	}
	orderID := order.ID
	return earnPoints(ctx, tx, *order.CustomerID, order.PointsUsed, &orderID, fmt.Sprintf("Reintegro pedido #%d", order.ID))
}

func (s *orderService) ExpireUnpaid(ctx context.Context) (int64, error) {
	before := s.now().Add(-s.unpaidTTL)
	orders, err := s.store.Orders.ListExpiredUnpaid(ctx, before, expireBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpaid orders: %w", err)
	}

	var (
		expired int64
		errs    []error
	)
	for _, candidate := range orders {
		if _, err := s.cancel(ctx, candidate.ID, nil, nil); err != nil {
			s.logger.WithError(err).WithField("order_id", candidate.ID).Warn("Failed to expire unpaid order")
			errs = append(errs, err)
			continue
		}
		expired++
	}
	return expired, errors.Join(errs...)
}
