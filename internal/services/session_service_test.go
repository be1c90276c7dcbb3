package services

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/storefront-service/internal/cache"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
)

// memoryCache is a minimal cache.Cache kept in a map
type memoryCache struct {
	cache.NoOpCache
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	return ok && json.Unmarshal(raw, dest) == nil
}

func (c *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

var sessionClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestSessionService(c cache.Cache) (*sessionService, *mocks) {
	_, m := newMockStore()
	svc := NewSessionService(m.sessions, c, 24*time.Hour, 5*time.Minute, quietLogger()).(*sessionService)
	svc.now = fixedClock(sessionClock)
	return svc, m
}

func TestSession_CreateAndResolveFromCache(t *testing.T) {
	c := newMemoryCache()
	svc, m := newTestSessionService(c)
	ctx := context.Background()

	m.sessions.On("Create", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	session, err := svc.Create(ctx, models.PrincipalCustomer, 7, "10.0.0.1", "Mozilla/5.0")
	require.NoError(t, err)
	assert.Equal(t, sessionClock.Add(24*time.Hour), session.ExpiresAt)
	assert.True(t, c.has(sessionCacheKey(session.ID)))

	resolved, err := svc.Resolve(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(7), resolved.PrincipalID)
	m.sessions.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSession_CreateTrimsUserAgentOnRuneBoundary(t *testing.T) {
	svc, m := newTestSessionService(cache.NewNoOpCache())
	ctx := context.Background()

	m.sessions.On("Create", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	userAgent := strings.Repeat("a", 254) + "ñandú"
	session, err := svc.Create(ctx, models.PrincipalCustomer, 7, "10.0.0.1", userAgent)
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("a", 254), session.UserAgent)
	assert.True(t, utf8.ValidString(session.UserAgent))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "joy", truncate("joy", 10))
	assert.Equal(t, "jo", truncate("joyería", 2))
	assert.Equal(t, "joyer", truncate("joyería", 6))
	assert.Equal(t, "joyerí", truncate("joyería", 7))
	assert.Equal(t, "", truncate("€", 2))
}

func TestSession_ResolveFallsBackToDatabase(t *testing.T) {
	svc, m := newTestSessionService(cache.NewNoOpCache())
	ctx := context.Background()
	id := uuid.New().String()

	m.sessions.On("GetByID", ctx, id).Return(&models.Session{
		ID:            id,
		PrincipalType: models.PrincipalAdmin,
		PrincipalID:   1,
		ExpiresAt:     sessionClock.Add(time.Hour),
	}, nil)

	session, err := svc.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PrincipalAdmin, session.PrincipalType)
}

func TestSession_ExpiredIsRevoked(t *testing.T) {
	svc, m := newTestSessionService(cache.NewNoOpCache())
	ctx := context.Background()
	id := uuid.New().String()

	m.sessions.On("GetByID", ctx, id).Return(&models.Session{ID: id, ExpiresAt: sessionClock.Add(-time.Minute)}, nil)
	m.sessions.On("Delete", ctx, id).Return(nil)

	_, err := svc.Resolve(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	m.sessions.AssertCalled(t, "Delete", ctx, id)
}

func TestSession_ResolveRejectsMalformedIDs(t *testing.T) {
	svc, m := newTestSessionService(cache.NewNoOpCache())

	_, err := svc.Resolve(context.Background(), "not-a-session")
	assert.ErrorIs(t, err, ErrNotFound)
	m.sessions.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSession_UnknownID(t *testing.T) {
	svc, m := newTestSessionService(cache.NewNoOpCache())
	ctx := context.Background()
	id := uuid.New().String()

	m.sessions.On("GetByID", ctx, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Resolve(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_RevokeAllEvictsCache(t *testing.T) {
	c := newMemoryCache()
	svc, m := newTestSessionService(c)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, sessionCacheKey("s-1"), models.Session{ID: "s-1"}, time.Minute))
	m.sessions.On("DeleteByPrincipal", ctx, models.PrincipalCustomer, uint(7)).Return([]string{"s-1"}, nil)

	require.NoError(t, svc.RevokeAll(ctx, models.PrincipalCustomer, 7))
	assert.False(t, c.has(sessionCacheKey("s-1")))
}

func TestRenderQR(t *testing.T) {
	content, err := renderQR("https://checkout.example/abc", qrSize)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())
}
