package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CustomerService manages customer accounts
type CustomerService interface {
	Register(ctx context.Context, req *models.RegisterCustomerRequest) (*models.Customer, error)
	Get(ctx context.Context, id uint) (*models.Customer, error)
	UpdateProfile(ctx context.Context, id uint, req *models.UpdateCustomerRequest) (*models.Customer, error)
	List(ctx context.Context, filters repository.CustomerFilters) ([]models.Customer, int64, error)
	SetActive(ctx context.Context, id uint, active bool) (*models.Customer, error)
	// Delete archives the identity in clientes_historicos and removes the account
	Delete(ctx context.Context, id uint, deletedBy string) error
}

type customerService struct {
	store     *repository.Store
	tx        repository.TxManager
	sessions  SessionService
	passwords *PasswordService
	publisher events.Publisher
	logger    *logrus.Logger
	now       func() time.Time
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	store *repository.Store,
	tx repository.TxManager,
	sessions SessionService,
	passwords *PasswordService,
	publisher events.Publisher,
	logger *logrus.Logger,
) CustomerService {
	return &customerService{
		store:     store,
		tx:        tx,
		sessions:  sessions,
		passwords: passwords,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// deletedSnapshot is stored as the resumen of a historical customer
type deletedSnapshot struct {
	Orders     int64     `json:"pedidos"`
	Points     int64     `json:"puntos"`
	Registered time.Time `json:"fechaRegistro"`
}

func (s *customerService) Register(ctx context.Context, req *models.RegisterCustomerRequest) (*models.Customer, error) {
	email := normalizeEmail(req.Email)
	if err := s.passwords.ValidateStrength(req.Password); err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
		Active:       true,
	}
	if err := s.store.Customers.Create(ctx, customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.WithField("customer_id", customer.ID).Info("Customer registered")
	return customer, nil
}

// ensureEmailAvailable checks both the live and the historical customer tables
func (s *customerService) ensureEmailAvailable(ctx context.Context, email string, excludeID uint) error {
	exists, err := s.store.Customers.EmailExists(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return ErrEmailTaken
	}

	archived, err := s.store.Customers.HistoricalEmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check historical email: %w", err)
	}
	if archived {
		return ErrEmailTaken
	}
	return nil
}

func (s *customerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.store.Customers.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "customer")
	}
	return customer, nil
}

func (s *customerService) UpdateProfile(ctx context.Context, id uint, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		customer.Name = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		customer.Phone = phone
	}
	if email := normalizeEmail(req.Email); email != "" && email != customer.Email {
		if err := s.ensureEmailAvailable(ctx, email, customer.ID); err != nil {
			return nil, err
		}
		customer.Email = email
	}
	if req.Password != "" {
		hash, err := s.passwords.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		customer.PasswordHash = hash
	}

	if err := s.store.Customers.Update(ctx, customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, filters repository.CustomerFilters) ([]models.Customer, int64, error) {
	filters.Normalize()
	return s.store.Customers.List(ctx, filters)
}

func (s *customerService) SetActive(ctx context.Context, id uint, active bool) (*models.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Customers.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	customer.Active = active

	if !active {
		if err := s.sessions.RevokeAll(ctx, models.PrincipalCustomer, id); err != nil {
			s.logger.WithError(err).WithField("customer_id", id).Warn("Failed to revoke sessions of deactivated customer")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"customer_id": id,
		"active":      active,
	}).Info("Customer status changed")
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, id uint, deletedBy string) error {
	var revoked []string

	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		customer, err := tx.Customers.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "customer")
		}

		orders, err := tx.Orders.CountByCustomer(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		snapshot, err := json.Marshal(deletedSnapshot{
			Orders:     orders,
			Points:     customer.Points,
			Registered: customer.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		historical := &models.HistoricalCustomer{
			OriginalID: customer.ID,
			Name:       customer.Name,
			Email:      customer.Email,
			Phone:      customer.Phone,
			DeletedBy:  deletedBy,
			Snapshot:   datatypes.JSON(snapshot),
			DeletedAt:  s.now(),
		}
		if err := tx.Customers.CreateHistorical(ctx, historical); err != nil {
			return fmt.Errorf("failed to archive customer: %w", err)
		}

		if err := tx.Orders.DetachCustomer(ctx, id); err != nil {
			return fmt.Errorf("failed to detach orders: %w", err)
		}

		revoked, err = tx.Sessions.DeleteByPrincipal(ctx, models.PrincipalCustomer, id)
		if err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}

		if err := tx.Customers.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.sessions.Evict(ctx, revoked...)
	s.publisher.Publish(ctx, events.CustomerDeleted, map[string]interface{}{
		"clienteID":    id,
		"eliminadoPor": deletedBy,
	})
	s.logger.WithFields(logrus.Fields{
		"customer_id": id,
		"deleted_by":  deletedBy,
	}).Info("Customer deleted")
	return nil
}
