package repository

import (
	"context"
	"time"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByPrincipal(ctx context.Context, principalType models.PrincipalType, principalID uint) ([]string, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error
}

// DeleteByPrincipal removes every session of a principal and returns the removed ids
// so callers can evict them from the cache.
func (r *sessionRepository) DeleteByPrincipal(ctx context.Context, principalType models.PrincipalType, principalID uint) ([]string, error) {
	db := r.db.WithContext(ctx)

	var ids []string
	if err := db.Model(&models.Session{}).
		Where("principal_type = ? AND principal_id = ?", principalType, principalID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := db.Delete(&models.Session{}, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *sessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Session{}, "expires_at < ?", now)
	return result.RowsAffected, result.Error
}

// ==========================================
// PASSWORD RECOVERY
// ==========================================

type RecoveryRepository interface {
	Create(ctx context.Context, request *models.RecoveryRequest) error
	GetByToken(ctx context.Context, token string) (*models.RecoveryRequest, error)
	MarkUsed(ctx context.Context, id uint) error
	InvalidateForCustomer(ctx context.Context, customerID uint) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type recoveryRepository struct {
	db *gorm.DB
}

// NewRecoveryRepository creates a new recovery request repository
func NewRecoveryRepository(db *gorm.DB) RecoveryRepository {
	return &recoveryRepository{db: db}
}

func (r *recoveryRepository) Create(ctx context.Context, request *models.RecoveryRequest) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(request).Error
}

func (r *recoveryRepository) GetByToken(ctx context.Context, token string) (*models.RecoveryRequest, error) {
	var request models.RecoveryRequest
	if err := r.db.WithContext(ctx).First(&request, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// MarkUsed consumes the token; a second call on the same token affects no rows
func (r *recoveryRepository) MarkUsed(ctx context.Context, id uint) error {
	return guarded(r.db.WithContext(ctx).Model(&models.RecoveryRequest{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true))
}

func (r *recoveryRepository) InvalidateForCustomer(ctx context.Context, customerID uint) error {
	return r.db.WithContext(ctx).Model(&models.RecoveryRequest{}).
		Where("customer_id = ? AND used = ?", customerID, false).
		Update("used", true).Error
}

func (r *recoveryRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.RecoveryRequest{}, "expires_at < ? OR used = ?", now, true)
	return result.RowsAffected, result.Error
}
