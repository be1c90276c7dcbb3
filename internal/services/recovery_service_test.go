package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"gorm.io/gorm"
)

var recoveryClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type recoveryFixture struct {
	svc      *recoveryService
	m        *mocks
	sessions *mockSessionService
	notifier *recordingNotifier
}

func newRecoveryFixture() *recoveryFixture {
	store, m := newMockStore()
	sessions := new(mockSessionService)
	notifier := &recordingNotifier{}
	svc := NewRecoveryService(store, fakeTx{store: store}, sessions, testPasswords(), notifier, 5*time.Minute, quietLogger()).(*recoveryService)
	svc.now = fixedClock(recoveryClock)
	return &recoveryFixture{svc: svc, m: m, sessions: sessions, notifier: notifier}
}

func TestGenerateRecoveryToken_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-F]{6}$`)
	for i := 0; i < 20; i++ {
		token, err := generateRecoveryToken()
		require.NoError(t, err)
		assert.Regexp(t, pattern, token)
	}
}

func TestRequest_IssuesAndEmailsToken(t *testing.T) {
	f := newRecoveryFixture()
	ctx := context.Background()

	f.m.customers.On("GetByEmail", ctx, "ana@example.com").Return(&models.Customer{ID: 7, Email: "ana@example.com", Active: true}, nil)
	f.m.recovery.On("InvalidateForCustomer", ctx, uint(7)).Return(nil)

	var stored *models.RecoveryRequest
	f.m.recovery.On("Create", ctx, mock.AnythingOfType("*models.RecoveryRequest")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.RecoveryRequest)
	}).Return(nil)

	require.NoError(t, f.svc.Request(ctx, "Ana@Example.com"))

	require.NotNil(t, stored)
	assert.Equal(t, recoveryClock.Add(5*time.Minute), stored.ExpiresAt)
	assert.Equal(t, []string{stored.Token}, f.notifier.tokens)
}

func TestRequest_RetriesTokenCollision(t *testing.T) {
	f := newRecoveryFixture()
	ctx := context.Background()

	f.m.customers.On("GetByEmail", ctx, "ana@example.com").Return(&models.Customer{ID: 7, Active: true}, nil)
	f.m.recovery.On("InvalidateForCustomer", ctx, uint(7)).Return(nil)
	f.m.recovery.On("Create", ctx, mock.Anything).Return(gorm.ErrDuplicatedKey).Once()
	f.m.recovery.On("Create", ctx, mock.Anything).Return(nil).Once()

	require.NoError(t, f.svc.Request(ctx, "ana@example.com"))
	f.m.recovery.AssertNumberOfCalls(t, "Create", 2)
	assert.Len(t, f.notifier.tokens, 1)
}

func TestRequest_UnknownOrInactiveEmailIsSilent(t *testing.T) {
	f := newRecoveryFixture()
	ctx := context.Background()

	f.m.customers.On("GetByEmail", ctx, "nadie@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.m.customers.On("GetByEmail", ctx, "inactiva@example.com").Return(&models.Customer{ID: 8, Active: false}, nil)

	assert.NoError(t, f.svc.Request(ctx, "nadie@example.com"))
	assert.NoError(t, f.svc.Request(ctx, "inactiva@example.com"))
	assert.Empty(t, f.notifier.tokens)
	f.m.recovery.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestValidate(t *testing.T) {
	f := newRecoveryFixture()
	ctx := context.Background()

	f.m.recovery.On("GetByToken", ctx, "A1B2C3").Return(&models.RecoveryRequest{ID: 1, ExpiresAt: recoveryClock.Add(time.Minute)}, nil)
	f.m.recovery.On("GetByToken", ctx, "0000AA").Return(&models.RecoveryRequest{ID: 2, ExpiresAt: recoveryClock.Add(-time.Second)}, nil)
	f.m.recovery.On("GetByToken", ctx, "BBBBBB").Return(&models.RecoveryRequest{ID: 3, ExpiresAt: recoveryClock.Add(time.Minute), Used: true}, nil)
	f.m.recovery.On("GetByToken", ctx, "FFFFFF").Return(nil, gorm.ErrRecordNotFound)

	result, err := f.svc.Validate(ctx, " a1b2c3 ")
	require.NoError(t, err)
	assert.True(t, result.Valid)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", "0000AA"},
		{"used", "BBBBBB"},
		{"unknown", "FFFFFF"},
		{"empty", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Validate(ctx, tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestReset_ChangesPasswordAndRevokesSessions(t *testing.T) {
	f := newRecoveryFixture()
	ctx := context.Background()

	f.m.recovery.On("GetByToken", ctx, "A1B2C3").Return(&models.RecoveryRequest{ID: 1, CustomerID: 7, ExpiresAt: recoveryClock.Add(time.Minute)}, nil)
	f.m.recovery.On("MarkUsed", ctx, uint(1)).Return(nil)
	f.m.customers.On("GetByID", ctx, uint(7)).Return(&models.Customer{ID: 7, PasswordHash: "old"}, nil)

	var updated *models.Customer
	f.m.customers.On("Update", ctx, mock.AnythingOfType("*models.Customer")).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*models.Customer)
	}).Return(nil)
	f.m.sessions.On("DeleteByPrincipal", ctx, models.PrincipalCustomer, uint(7)).Return([]string{"s-1"}, nil)
	f.sessions.On("Evict", ctx, []string{"s-1"}).Return()

	err := f.svc.Reset(ctx, &models.ResetPasswordRequest{Token: "a1b2c3", Password: "nueva-clave-segura"})
	require.NoError(t, err)

	require.NotNil(t, updated)
	assert.True(t, f.svc.passwords.VerifyPassword("nueva-clave-segura", updated.PasswordHash))
	f.sessions.AssertExpectations(t)
}

func TestReset_TokenUsedConcurrently(t *testing.T) {
	f := newRecoveryFixture()
	ctx := context.Background()

	f.m.recovery.On("GetByToken", ctx, "A1B2C3").Return(&models.RecoveryRequest{ID: 1, CustomerID: 7, ExpiresAt: recoveryClock.Add(time.Minute)}, nil)
	f.m.recovery.On("MarkUsed", ctx, uint(1)).Return(repository.ErrConditionNotMet)

	err := f.svc.Reset(ctx, &models.ResetPasswordRequest{Token: "A1B2C3", Password: "nueva-clave-segura"})
	assert.ErrorIs(t, err, ErrTokenInvalid)
	f.m.customers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReset_WeakPassword(t *testing.T) {
	f := newRecoveryFixture()

	err := f.svc.Reset(context.Background(), &models.ResetPasswordRequest{Token: "A1B2C3", Password: "corta"})
	assert.ErrorIs(t, err, ErrValidation)
	f.m.recovery.AssertNotCalled(t, "GetByToken", mock.Anything, mock.Anything)
}
