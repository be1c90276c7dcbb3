package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/config"
	"google.golang.org/api/option"
)

// GCSProvider stores images in a Google Cloud Storage bucket
type GCSProvider struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
	logger        *logrus.Logger
}

// NewGCSProvider creates a GCS provider using a credentials file or application default credentials
func NewGCSProvider(cfg config.StorageConfig, logger *logrus.Logger) (*GCSProvider, error) {
	if cfg.GCSProjectID == "" {
		return nil, errors.New("GCP project ID is required")
	}

	var opts []option.ClientOption
	if cfg.GCSCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentials))
	}

	client, err := gcs.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	publicBaseURL := cfg.PublicBaseURL
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com/" + cfg.Bucket
	}

	return &GCSProvider{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}, nil
}

func (p *GCSProvider) Name() string {
	return "gcs"
}

func (p *GCSProvider) Upload(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	writer := p.client.Bucket(p.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=31536000"

	if _, err := io.Copy(writer, content); err != nil {
		writer.Close()
		p.logger.WithError(err).WithFields(logrus.Fields{
			"bucket": p.bucket,
			"key":    key,
		}).Error("Failed to upload to GCS")
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize GCS upload: %w", err)
	}

	return joinURL(p.publicBaseURL, key), nil
}

func (p *GCSProvider) Delete(ctx context.Context, key string) error {
	err := p.client.Bucket(p.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (p *GCSProvider) Close() error {
	return p.client.Close()
}
