package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/storefront-service/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey(FolderProducts, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "productos/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	key, err = ObjectKey(FolderDesigns, "image/jpeg; charset=binary")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	_, err = ObjectKey(FolderProducts, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalProvider_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	provider, err := NewLocalProvider(dir, "imagenes", "", quietLogger())
	require.NoError(t, err)

	url, err := provider.Upload(context.Background(), "productos/a.png", bytes.NewReader(pngHeader), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/imagenes/productos/a.png", url)

	stored, err := os.ReadFile(filepath.Join(dir, "imagenes", "productos", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	require.NoError(t, provider.Delete(context.Background(), "productos/a.png"))
	_, err = os.Stat(filepath.Join(dir, "imagenes", "productos", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting a missing object is not an error
	assert.NoError(t, provider.Delete(context.Background(), "productos/a.png"))
}

func TestLocalProvider_RejectsPathTraversal(t *testing.T) {
	provider, err := NewLocalProvider(t.TempDir(), "imagenes", "", quietLogger())
	require.NoError(t, err)

	_, err = provider.Upload(context.Background(), "../../etc/passwd", bytes.NewReader(pngHeader), "image/png")
	assert.Error(t, err)
}

func TestImageStore_SaveImage(t *testing.T) {
	provider, err := NewLocalProvider(t.TempDir(), "imagenes", "https://cdn.example.com", quietLogger())
	require.NoError(t, err)
	store := NewImageStore(provider, 1024, quietLogger())

	url, err := store.SaveImage(context.Background(), FolderDesigns, bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/imagenes/disenos/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
}

func TestImageStore_Validation(t *testing.T) {
	provider, err := NewLocalProvider(t.TempDir(), "imagenes", "", quietLogger())
	require.NoError(t, err)
	store := NewImageStore(provider, 32, quietLogger())
	ctx := context.Background()

	_, err = store.SaveImage(ctx, FolderProducts, bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = store.SaveImage(ctx, FolderProducts, bytes.NewReader(pngHeader), 64)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = store.SaveImage(ctx, FolderProducts, strings.NewReader("plain text"), 10)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	_, err := NewProvider(config.StorageConfig{Provider: "ftp"}, quietLogger())
	assert.Error(t, err)
}
