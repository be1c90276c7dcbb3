package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/health"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

// PointsService exposes the loyalty balance and ledger
type PointsService interface {
	Statement(ctx context.Context, customerID uint) (*models.PointsStatement, error)
	// Adjust records a manual ledger entry issued by an administrator
	Adjust(ctx context.Context, adminID uint, req *models.PointsAdjustmentRequest) (*models.PointsTransaction, error)
}

type pointsService struct {
	store     *repository.Store
	tx        repository.TxManager
	publisher events.Publisher
	logger    *logrus.Logger
}

// NewPointsService creates a new points service
func NewPointsService(store *repository.Store, tx repository.TxManager, publisher events.Publisher, logger *logrus.Logger) PointsService {
	return &pointsService{
		store:     store,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

// ComputeAward returns floor(earnRate × paid); amounts settled with points earn nothing
func ComputeAward(earnRate decimal.Decimal, paid int64) int64 {
	if paid <= 0 || !earnRate.IsPositive() {
		return 0
	}
	return earnRate.Mul(decimal.NewFromInt(paid)).Floor().IntPart()
}

// earnPoints credits the balance and appends a GANADOS entry in the caller's transaction
func earnPoints(ctx context.Context, store *repository.Store, customerID uint, amount int64, orderID *uint, description string) (*models.PointsTransaction, error) {
	if err := store.Customers.AddPoints(ctx, customerID, amount); err != nil {
		if conditionNotMet(err) {
			return nil, fmt.Errorf("customer: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to credit points: %w", err)
	}

	entry := &models.PointsTransaction{
		CustomerID:  customerID,
		Type:        models.PointsEarned,
		Amount:      amount,
		OrderID:     orderID,
		Description: description,
	}
	if err := store.Points.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record points: %w", err)
	}
	return entry, nil
}

// redeemPoints debits the balance with a guarded update and appends a REDIMIDOS entry
func redeemPoints(ctx context.Context, store *repository.Store, customerID uint, amount int64, orderID *uint, description string) (*models.PointsTransaction, error) {
	if err := store.Customers.DeductPoints(ctx, customerID, amount); err != nil {
		if conditionNotMet(err) {
			return nil, fmt.Errorf("cannot redeem %d points: %w", amount, ErrInsufficientPoints)
		}
		return nil, fmt.Errorf("failed to debit points: %w", err)
	}

	entry := &models.PointsTransaction{
		CustomerID:  customerID,
		Type:        models.PointsRedeemed,
		Amount:      amount,
		OrderID:     orderID,
		Description: description,
	}
	if err := store.Points.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record points: %w", err)
	}
	return entry, nil
}

// publishPoints emits the ledger movement after commit
func publishPoints(ctx context.Context, publisher events.Publisher, entry *models.PointsTransaction) {
	if entry == nil {
		return
	}

	eventType := events.PointsEarned
	if entry.Type == models.PointsRedeemed {
		eventType = events.PointsRedeemed
	}
	health.RecordPoints(string(entry.Type), entry.Amount)
	publisher.Publish(ctx, eventType, map[string]interface{}{
		"clienteID":   entry.CustomerID,
		"cantidad":    entry.Amount,
		"pedidoID":    entry.OrderID,
		"descripcion": entry.Description,
	})
}

func (s *pointsService) Statement(ctx context.Context, customerID uint) (*models.PointsStatement, error) {
	customer, err := s.store.Customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, notFound(err, "customer")
	}
	transactions, err := s.store.Points.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load points ledger: %w", err)
	}
	if transactions == nil {
		transactions = []models.PointsTransaction{}
	}
	return &models.PointsStatement{
		Balance:      customer.Points,
		Transactions: transactions,
	}, nil
}

func (s *pointsService) Adjust(ctx context.Context, adminID uint, req *models.PointsAdjustmentRequest) (*models.PointsTransaction, error) {
	if !req.Type.IsValid() {
		return nil, validation("unknown points transaction type %q", req.Type)
	}
	if req.Amount <= 0 {
		return nil, validation("amount must be positive")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Ajuste manual"
	}

	var entry *models.PointsTransaction
	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Customers.GetByID(ctx, req.CustomerID); err != nil {
			return notFound(err, "customer")
		}

		var err error
		if req.Type == models.PointsRedeemed {
			entry, err = redeemPoints(ctx, tx, req.CustomerID, req.Amount, nil, description)
		} else {
			entry, err = earnPoints(ctx, tx, req.CustomerID, req.Amount, nil, description)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	publishPoints(ctx, s.publisher, entry)
	s.logger.WithFields(logrus.Fields{
		"admin_id":    adminID,
		"customer_id": req.CustomerID,
		"type":        req.Type,
		"amount":      req.Amount,
	}).Info("Points adjusted")
	return entry, nil
}
