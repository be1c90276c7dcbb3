package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/storage"
)

type stubUploader struct {
	url     string
	err     error
	folders []string
}

func (u *stubUploader) SaveImage(ctx context.Context, folder string, content io.Reader, size int64) (string, error) {
	u.folders = append(u.folders, folder)
	return u.url, u.err
}

func designStatus(s models.DesignStatus) *models.DesignStatus { return &s }

func TestCreateDesign(t *testing.T) {
	store, m := newMockStore()
	uploader := &stubUploader{url: "/uploads/disenos/a.png"}
	publisher := &recordingPublisher{}
	svc := NewDesignService(store, uploader, publisher, quietLogger())
	ctx := context.Background()

	m.designs.On("Create", ctx, mock.AnythingOfType("*models.CustomDesign")).Return(nil)

	design, err := svc.Create(ctx, 7, &DesignSubmission{
		Description: " Anillo con iniciales ",
		Data:        `{"material":"plata","talla":7}`,
		Image:       strings.NewReader("png"),
		ImageSize:   3,
	})
	require.NoError(t, err)

	assert.Equal(t, models.DesignStatusSubmitted, design.Status)
	assert.Equal(t, "Anillo con iniciales", design.Description)
	assert.Equal(t, "/uploads/disenos/a.png", design.ImageURL)
	assert.JSONEq(t, `{"material":"plata","talla":7}`, string(design.Data))
	assert.Equal(t, []string{storage.FolderDesigns}, uploader.folders)
	assert.Equal(t, []string{events.DesignSubmitted}, publisher.types())
}

func TestCreateDesign_Validation(t *testing.T) {
	store, m := newMockStore()
	uploader := &stubUploader{err: storage.ErrUnsupportedType}
	svc := NewDesignService(store, uploader, &recordingPublisher{}, quietLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, &DesignSubmission{Description: "sin imagen"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, 7, &DesignSubmission{Data: "{no es json", Image: strings.NewReader("x"), ImageSize: 1})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, uploader.folders)

	_, err = svc.Create(ctx, 7, &DesignSubmission{Image: strings.NewReader("GIF89a"), ImageSize: 6})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)
	m.designs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateDesign_StatusOnlyMovesForward(t *testing.T) {
	store, m := newMockStore()
	publisher := &recordingPublisher{}
	svc := NewDesignService(store, &stubUploader{}, publisher, quietLogger())
	ctx := context.Background()

	m.designs.On("GetByID", ctx, uint(3)).Return(&models.CustomDesign{ID: 3, CustomerID: 7, Status: models.DesignStatusInProduction}, nil)
	m.designs.On("Update", ctx, mock.AnythingOfType("*models.CustomDesign")).Return(nil)

	_, err := svc.Update(ctx, 3, 1, &models.UpdateDesignRequest{Status: designStatus(models.DesignStatusSubmitted)})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	price := int64(450000)
	design, err := svc.Update(ctx, 3, 1, &models.UpdateDesignRequest{
		Status:         designStatus(models.DesignStatusFinished),
		EstimatedPrice: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DesignStatusFinished, design.Status)
	assert.Equal(t, price, design.EstimatedPrice)
	assert.Equal(t, uint(1), *design.AdminID)
	assert.Equal(t, []string{events.DesignUpdated}, publisher.types())
}

func TestGetDesign_Visibility(t *testing.T) {
	store, m := newMockStore()
	svc := NewDesignService(store, &stubUploader{}, &recordingPublisher{}, quietLogger())
	ctx := context.Background()

	m.designs.On("GetByID", ctx, uint(3)).Return(&models.CustomDesign{ID: 3, CustomerID: 7}, nil)

	_, err := svc.Get(ctx, 3, CustomerViewer(7))
	assert.NoError(t, err)
	_, err = svc.Get(ctx, 3, AdminViewer(1))
	assert.NoError(t, err)
	_, err = svc.Get(ctx, 3, CustomerViewer(8))
	assert.ErrorIs(t, err, ErrNotFound)
}
