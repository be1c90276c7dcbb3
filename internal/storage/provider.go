package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/config"
)

const (
	FolderProducts = "productos"
	FolderDesigns  = "disenos"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds the maximum upload size")
	ErrEmptyFile       = errors.New("image file is empty")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Provider is an object store for public images
type Provider interface {
	// Upload stores content under key and returns its public URL
	Upload(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// NewProvider builds the provider selected in configuration
func NewProvider(cfg config.StorageConfig, logger *logrus.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalProvider(cfg.LocalBasePath, cfg.Bucket, cfg.PublicBaseURL, logger)
	case "s3":
		return NewS3Provider(cfg, logger)
	case "gcs":
		return NewGCSProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

// ImageStore validates uploads and stores them through a Provider
type ImageStore struct {
	provider Provider
	maxBytes int64
	logger   *logrus.Logger
}

// NewImageStore wraps provider; maxBytes <= 0 disables the size check
func NewImageStore(provider Provider, maxBytes int64, logger *logrus.Logger) *ImageStore {
	return &ImageStore{provider: provider, maxBytes: maxBytes, logger: logger}
}

// SaveImage sniffs the content type, enforces the size limit and uploads under folder/<uuid><ext>
func (s *ImageStore) SaveImage(ctx context.Context, folder string, content io.Reader, size int64) (string, error) {
	if size == 0 {
		return "", ErrEmptyFile
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", ErrTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyFile
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	key, err := ObjectKey(folder, contentType)
	if err != nil {
		return "", err
	}

	body := io.MultiReader(bytes.NewReader(head), content)
	if s.maxBytes > 0 {
		body = &limitedReader{r: body, remaining: s.maxBytes}
	}

	url, err := s.provider.Upload(ctx, key, body, contentType)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"provider":     s.provider.Name(),
		"key":          key,
		"content_type": contentType,
	}).Info("Image stored")

	return url, nil
}

// Delete removes the object behind a key
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	return s.provider.Delete(ctx, key)
}

// ObjectKey returns folder/<uuid><ext> for an accepted image content type
func ObjectKey(folder, contentType string) (string, error) {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	ext, ok := imageExtensions[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	return path.Join(folder, uuid.New().String()+ext), nil
}

// joinURL glues a base URL and path segments with single slashes
func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		out += "/" + p
	}
	return out
}

// limitedReader fails once more than remaining bytes were read
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
