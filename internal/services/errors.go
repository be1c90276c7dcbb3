package services

import (
	"errors"
	"fmt"

	"github.com/tesseract-hub/storefront-service/internal/repository"
	"gorm.io/gorm"
)

// Sentinel errors returned by the services; handlers map them to HTTP status codes
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyConfirmed   = errors.New("payment already confirmed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrEmailTaken         = errors.New("email already registered")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrInvalidSignature   = errors.New("invalid event signature")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayFailed      = errors.New("payment gateway failed")
)

// notFound wraps gorm.ErrRecordNotFound as ErrNotFound and passes other errors through
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// duplicate converts unique index violations into ErrConflict
func duplicate(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s already exists: %w", what, ErrConflict)
	}
	return err
}

func validation(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func conditionNotMet(err error) bool {
	return errors.Is(err, repository.ErrConditionNotMet)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
