package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tesseract-hub/storefront-service/internal/clients/gateway"
	"github.com/tesseract-hub/storefront-service/internal/health"
	"github.com/tesseract-hub/storefront-service/internal/storage"
)

// ImageUploader stores an uploaded image and returns its public URL
type ImageUploader interface {
	SaveImage(ctx context.Context, folder string, content io.Reader, size int64) (string, error)
}

// CheckoutGateway opens hosted checkouts for online payment methods
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error)
}

// Notifier sends the transactional emails; implementations never fail the caller
type Notifier interface {
	SendRecoveryToken(ctx context.Context, email, name, token string, expiresAt time.Time)
	SendPaymentConfirmed(ctx context.Context, email, name string, orderID uint, amount, pointsEarned int64)
}

// uploadImage stores an image and translates rejected files into validation errors
func uploadImage(ctx context.Context, uploader ImageUploader, folder string, content io.Reader, size int64) (string, error) {
	url, err := uploader.SaveImage(ctx, folder, content, size)
	health.RecordUpload(folder, err == nil)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrEmptyFile) {
			return "", fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return url, nil
}
