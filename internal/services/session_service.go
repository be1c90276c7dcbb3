package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/cache"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

// SessionService manages server-side login sessions
type SessionService interface {
	Create(ctx context.Context, principalType models.PrincipalType, principalID uint, ipAddress, userAgent string) (*models.Session, error)
	Resolve(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeAll(ctx context.Context, principalType models.PrincipalType, principalID uint) error
	// Evict drops cached copies of sessions deleted elsewhere, e.g. inside a transaction
	Evict(ctx context.Context, ids ...string)
	PurgeExpired(ctx context.Context) (int64, error)
}

type sessionService struct {
	sessions repository.SessionRepository
	cache    cache.Cache
	ttl      time.Duration
	cacheTTL time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(sessions repository.SessionRepository, c cache.Cache, ttl, cacheTTL time.Duration, logger *logrus.Logger) SessionService {
	return &sessionService{
		sessions: sessions,
		cache:    c,
		ttl:      ttl,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

func sessionCacheKey(id string) string {
	return "session:" + id
}

func (s *sessionService) Create(ctx context.Context, principalType models.PrincipalType, principalID uint, ipAddress, userAgent string) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:            uuid.New().String(),
		PrincipalType: principalType,
		PrincipalID:   principalID,
		ExpiresAt:     now.Add(s.ttl),
		IPAddress:     ipAddress,
		UserAgent:     truncate(userAgent, 255),
		CreatedAt:     now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.store(ctx, session)
	return session, nil
}

func (s *sessionService) Resolve(ctx context.Context, id string) (*models.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}

	var session models.Session
	if !s.cache.GetJSON(ctx, sessionCacheKey(id), &session) {
		loaded, err := s.sessions.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(err, "session")
		}
		session = *loaded
		s.store(ctx, &session)
	}

	if session.IsExpired(s.now()) {
		if err := s.Revoke(ctx, id); err != nil {
			s.logger.WithError(err).WithField("session_id", id).Warn("Failed to delete expired session")
		}
		return nil, fmt.Errorf("session expired: %w", ErrNotFound)
	}
	return &session, nil
}

func (s *sessionService) Revoke(ctx context.Context, id string) error {
	s.Evict(ctx, id)
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *sessionService) RevokeAll(ctx context.Context, principalType models.PrincipalType, principalID uint) error {
	ids, err := s.sessions.DeleteByPrincipal(ctx, principalType, principalID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	s.Evict(ctx, ids...)
	return nil
}

func (s *sessionService) Evict(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionCacheKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WithError(err).Warn("Failed to evict cached sessions")
	}
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.PurgeExpired(ctx, s.now())
}

// store caches the session no longer than it remains valid
func (s *sessionService) store(ctx context.Context, session *models.Session) {
	ttl := s.cacheTTL
	if remaining := session.ExpiresAt.Sub(s.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, sessionCacheKey(session.ID), session, ttl); err != nil {
		s.logger.WithError(err).Debug("Failed to cache session")
	}
}

// truncate caps s at max bytes without splitting a multi-byte rune
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
