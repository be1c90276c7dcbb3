package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"gorm.io/gorm"
)

const (
	recoveryTokenBytes    = 3
	recoveryTokenAttempts = 3
)

// RecoveryService runs the password recovery flow for customers
type RecoveryService interface {
	// Request issues and emails a token; it never reveals whether the email exists
	Request(ctx context.Context, email string) error
	Validate(ctx context.Context, token string) (*models.RecoveryValidation, error)
	Reset(ctx context.Context, req *models.ResetPasswordRequest) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type recoveryService struct {
	store     *repository.Store
	tx        repository.TxManager
	sessions  SessionService
	passwords *PasswordService
	notifier  Notifier
	ttl       time.Duration
	logger    *logrus.Logger
	now       func() time.Time
}

// NewRecoveryService creates a new recovery service
func NewRecoveryService(
	store *repository.Store,
	tx repository.TxManager,
	sessions SessionService,
	passwords *PasswordService,
	notifier Notifier,
	ttl time.Duration,
	logger *logrus.Logger,
) RecoveryService {
	return &recoveryService{
		store:     store,
		tx:        tx,
		sessions:  sessions,
		passwords: passwords,
		notifier:  notifier,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// generateRecoveryToken returns 6 uppercase hex characters
func generateRecoveryToken() (string, error) {
	buf := make([]byte, recoveryTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

func normalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

func (s *recoveryService) Request(ctx context.Context, email string) error {
	customer, err := s.store.Customers.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug("Recovery requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to load customer: %w", err)
	}
	if !customer.Active {
		s.logger.WithField("customer_id", customer.ID).Debug("Recovery requested for inactive customer")
		return nil
	}

	if err := s.store.Recovery.InvalidateForCustomer(ctx, customer.ID); err != nil {
		return fmt.Errorf("failed to invalidate previous tokens: %w", err)
	}

	request := &models.RecoveryRequest{
		CustomerID: customer.ID,
		ExpiresAt:  s.now().Add(s.ttl),
	}
	for attempt := 1; ; attempt++ {
		request.Token, err = generateRecoveryToken()
		if err != nil {
			return err
		}
		err = s.store.Recovery.Create(ctx, request)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == recoveryTokenAttempts {
			return fmt.Errorf("failed to store recovery token: %w", err)
		}
	}

	s.notifier.SendRecoveryToken(ctx, customer.Email, customer.Name, request.Token, request.ExpiresAt)
	s.logger.WithField("customer_id", customer.ID).Info("Recovery token issued")
	return nil
}

// usableRequest loads a token that is neither used nor expired
func (s *recoveryService) usableRequest(ctx context.Context, store *repository.Store, token string) (*models.RecoveryRequest, error) {
	token = normalizeToken(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	request, err := store.Recovery.GetByToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to load recovery token: %w", err)
	}
	if request.Used || request.IsExpired(s.now()) {
		return nil, ErrTokenInvalid
	}
	return request, nil
}

func (s *recoveryService) Validate(ctx context.Context, token string) (*models.RecoveryValidation, error) {
	request, err := s.usableRequest(ctx, s.store, token)
	if err != nil {
		return nil, err
	}
	return &models.RecoveryValidation{Valid: true, ExpiresAt: request.ExpiresAt}, nil
}

func (s *recoveryService) Reset(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := s.passwords.ValidateStrength(req.Password); err != nil {
		return err
	}

	var (
		customerID uint
		revoked    []string
	)
	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		request, err := s.usableRequest(ctx, tx, req.Token)
		if err != nil {
			return err
		}
		if err := tx.Recovery.MarkUsed(ctx, request.ID); err != nil {
			if conditionNotMet(err) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("failed to mark token used: %w", err)
		}

		customer, err := tx.Customers.GetByID(ctx, request.CustomerID)
		if err != nil {
			return notFound(err, "customer")
		}
		hash, err := s.passwords.HashPassword(req.Password)
		if err != nil {
			return err
		}
		customer.PasswordHash = hash
		if err := tx.Customers.Update(ctx, customer); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		customerID = customer.ID

		revoked, err = tx.Sessions.DeleteByPrincipal(ctx, models.PrincipalCustomer, customer.ID)
		if err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.sessions.Evict(ctx, revoked...)
	s.logger.WithField("customer_id", customerID).Info("Password reset through recovery token")
	return nil
}

func (s *recoveryService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.Recovery.PurgeExpired(ctx, s.now())
}
