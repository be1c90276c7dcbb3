package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// LocalProvider stores images on the local filesystem; the HTTP server exposes them under /uploads
type LocalProvider struct {
	basePath      string
	bucket        string
	publicBaseURL string
	logger        *logrus.Logger
}

// NewLocalProvider creates the bucket directory under basePath
func NewLocalProvider(basePath, bucket, publicBaseURL string, logger *logrus.Logger) (*LocalProvider, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path is required for local provider")
	}
	if publicBaseURL == "" {
		publicBaseURL = "/uploads"
	}

	if err := os.MkdirAll(filepath.Join(basePath, bucket), 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalProvider{
		basePath:      basePath,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}, nil
}

func (p *LocalProvider) Name() string {
	return "local"
}

func (p *LocalProvider) fullPath(key string) (string, error) {
	root := filepath.Join(p.basePath, p.bucket)
	full := filepath.Join(root, filepath.FromSlash(key))
	if !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return full, nil
}

func (p *LocalProvider) Upload(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	full, err := p.fullPath(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write content: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return joinURL(p.publicBaseURL, p.bucket, key), nil
}

func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	full, err := p.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
