package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/config"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"gorm.io/gorm"
)

// AuthService authenticates admins and customers and manages the admin profile
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest, ipAddress, userAgent string) (*models.Session, *models.Principal, error)
	Logout(ctx context.Context, sessionID string) error
	Principal(ctx context.Context, session *models.Session) (*models.Principal, error)

	// Admin operations
	SeedAdmin(ctx context.Context, cfg config.AdminConfig) error
	GetAdmin(ctx context.Context, id uint) (*models.Admin, error)
	UpdateAdmin(ctx context.Context, id uint, req *models.UpdateAdminRequest) (*models.Admin, error)
	ChangeAdminPassword(ctx context.Context, id uint, req *models.ChangePasswordRequest) error
}

type authService struct {
	store     *repository.Store
	sessions  SessionService
	passwords *PasswordService
	logger    *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store *repository.Store, sessions SessionService, passwords *PasswordService, logger *logrus.Logger) AuthService {
	return &authService{
		store:     store,
		sessions:  sessions,
		passwords: passwords,
		logger:    logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest, ipAddress, userAgent string) (*models.Session, *models.Principal, error) {
	email := normalizeEmail(req.Email)

	admin, err := s.store.Admins.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin != nil && s.passwords.VerifyPassword(req.Password, admin.PasswordHash) {
		session, err := s.sessions.Create(ctx, models.PrincipalAdmin, admin.ID, ipAddress, userAgent)
		if err != nil {
			return nil, nil, err
		}
		s.logger.WithField("admin_id", admin.ID).Info("Admin logged in")
		return session, adminPrincipal(admin), nil
	}

	customer, err := s.store.Customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if !s.passwords.VerifyPassword(req.Password, customer.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if !customer.Active {
		return nil, nil, ErrAccountInactive
	}

	session, err := s.sessions.Create(ctx, models.PrincipalCustomer, customer.ID, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}
	s.logger.WithField("customer_id", customer.ID).Info("Customer logged in")
	return session, customerPrincipal(customer), nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *authService) Principal(ctx context.Context, session *models.Session) (*models.Principal, error) {
	switch session.PrincipalType {
	case models.PrincipalAdmin:
		admin, err := s.store.Admins.GetByID(ctx, session.PrincipalID)
		if err != nil {
			return nil, notFound(err, "admin")
		}
		return adminPrincipal(admin), nil
	case models.PrincipalCustomer:
		customer, err := s.store.Customers.GetByID(ctx, session.PrincipalID)
		if err != nil {
			return nil, notFound(err, "customer")
		}
		return customerPrincipal(customer), nil
	default:
		return nil, fmt.Errorf("unknown principal type %q: %w", session.PrincipalType, ErrNotFound)
	}
}

func adminPrincipal(admin *models.Admin) *models.Principal {
	return &models.Principal{
		Type:  models.PrincipalAdmin,
		ID:    admin.ID,
		Name:  admin.Name,
		Email: admin.Email,
	}
}

func customerPrincipal(customer *models.Customer) *models.Principal {
	points := customer.Points
	return &models.Principal{
		Type:   models.PrincipalCustomer,
		ID:     customer.ID,
		Name:   customer.Name,
		Email:  customer.Email,
		Points: &points,
	}
}

// SeedAdmin creates the configured admin when the administradores table is empty
func (s *authService) SeedAdmin(ctx context.Context, cfg config.AdminConfig) error {
	count, err := s.store.Admins.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	if cfg.Password == "" {
		s.logger.Warn("No admin exists and ADMIN_PASSWORD is empty, skipping admin seed")
		return nil
	}

	hash, err := s.passwords.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("invalid seed admin password: %w", err)
	}
	admin := &models.Admin{
		Name:         cfg.Name,
		Email:        normalizeEmail(cfg.Email),
		PasswordHash: hash,
	}
	if err := s.store.Admins.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	s.logger.WithField("email", admin.Email).Info("Seeded default admin")
	return nil
}

func (s *authService) GetAdmin(ctx context.Context, id uint) (*models.Admin, error) {
	admin, err := s.store.Admins.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "admin")
	}
	return admin, nil
}

func (s *authService) UpdateAdmin(ctx context.Context, id uint, req *models.UpdateAdminRequest) (*models.Admin, error) {
	admin, err := s.GetAdmin(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		admin.Name = name
	}
	if email := normalizeEmail(req.Email); email != "" && email != admin.Email {
		exists, err := s.store.Admins.EmailExists(ctx, email, admin.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, ErrEmailTaken
		}
		admin.Email = email
	}

	if err := s.store.Admins.Update(ctx, admin); err != nil {
		return nil, duplicate(err, "admin email")
	}
	return admin, nil
}

func (s *authService) ChangeAdminPassword(ctx context.Context, id uint, req *models.ChangePasswordRequest) error {
	admin, err := s.GetAdmin(ctx, id)
	if err != nil {
		return err
	}
	if !s.passwords.VerifyPassword(req.Current, admin.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.passwords.HashPassword(req.New)
	if err != nil {
		return err
	}
	admin.PasswordHash = hash
	if err := s.store.Admins.Update(ctx, admin); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.WithField("admin_id", id).Info("Admin password changed")
	return nil
}
