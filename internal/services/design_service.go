package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/events"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"github.com/tesseract-hub/storefront-service/internal/storage"
	"gorm.io/datatypes"
)

// DesignSubmission is a customer's custom design request with its reference image
type DesignSubmission struct {
	Description string
	Data        string
	Image       io.Reader
	ImageSize   int64
}

// DesignService manages custom design requests
type DesignService interface {
	Create(ctx context.Context, customerID uint, submission *DesignSubmission) (*models.CustomDesign, error)
	ListMine(ctx context.Context, customerID uint) ([]models.CustomDesign, error)
	Get(ctx context.Context, id uint, viewer Viewer) (*models.CustomDesign, error)
	List(ctx context.Context, filters repository.DesignFilters) ([]models.CustomDesign, int64, error)
	// Update prices a design or moves it forward through the production workflow
	Update(ctx context.Context, id, adminID uint, req *models.UpdateDesignRequest) (*models.CustomDesign, error)
}

type designService struct {
	store     *repository.Store
	images    ImageUploader
	publisher events.Publisher
	logger    *logrus.Logger
}

// NewDesignService creates a new design service
func NewDesignService(store *repository.Store, images ImageUploader, publisher events.Publisher, logger *logrus.Logger) DesignService {
	return &designService{
		store:     store,
		images:    images,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *designService) Create(ctx context.Context, customerID uint, submission *DesignSubmission) (*models.CustomDesign, error) {
	if submission.Image == nil {
		return nil, validation("design image is required")
	}

	var data datatypes.JSON
	if raw := strings.TrimSpace(submission.Data); raw != "" {
		if !json.Valid([]byte(raw)) {
			return nil, validation("data must be valid JSON")
		}
		data = datatypes.JSON(raw)
	}

	url, err := uploadImage(ctx, s.images, storage.FolderDesigns, submission.Image, submission.ImageSize)
	if err != nil {
		return nil, err
	}

	design := &models.CustomDesign{
		CustomerID:  customerID,
		ImageURL:    url,
		Description: strings.TrimSpace(submission.Description),
		Data:        data,
		Status:      models.DesignStatusSubmitted,
	}
	if err := s.store.Designs.Create(ctx, design); err != nil {
		return nil, fmt.Errorf("failed to create design: %w", err)
	}

	s.publisher.Publish(ctx, events.DesignSubmitted, map[string]interface{}{
		"disenoID":  design.ID,
		"clienteID": customerID,
	})
	s.logger.WithFields(logrus.Fields{
		"design_id":   design.ID,
		"customer_id": customerID,
	}).Info("Custom design submitted")
	return design, nil
}

func (s *designService) ListMine(ctx context.Context, customerID uint) ([]models.CustomDesign, error) {
	return s.store.Designs.ListByCustomer(ctx, customerID)
}

func (s *designService) Get(ctx context.Context, id uint, viewer Viewer) (*models.CustomDesign, error) {
	design, err := s.store.Designs.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "design")
	}
	if !viewer.CanSee(&design.CustomerID) {
		return nil, fmt.Errorf("design: %w", ErrNotFound)
	}
	return design, nil
}

func (s *designService) List(ctx context.Context, filters repository.DesignFilters) ([]models.CustomDesign, int64, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, 0, validation("unknown design status %q", filters.Status)
	}
	filters.Normalize()
	return s.store.Designs.List(ctx, filters)
}

func (s *designService) Update(ctx context.Context, id, adminID uint, req *models.UpdateDesignRequest) (*models.CustomDesign, error) {
	design, err := s.store.Designs.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "design")
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, validation("unknown design status %q", *req.Status)
		}
		if !design.Status.CanAdvanceTo(*req.Status) {
			return nil, fmt.Errorf("design cannot move from %s to %s: %w", design.Status, *req.Status, ErrInvalidTransition)
		}
		design.Status = *req.Status
	}
	if req.EstimatedPrice != nil {
		if *req.EstimatedPrice < 0 {
			return nil, validation("estimated price must not be negative")
		}
		design.EstimatedPrice = *req.EstimatedPrice
	}
	design.AdminID = &adminID

	if err := s.store.Designs.Update(ctx, design); err != nil {
		return nil, fmt.Errorf("failed to update design: %w", err)
	}

	s.publisher.Publish(ctx, events.DesignUpdated, map[string]interface{}{
		"disenoID":       design.ID,
		"clienteID":      design.CustomerID,
		"estado":         design.Status,
		"precioEstimado": design.EstimatedPrice,
	})
	return design, nil
}
