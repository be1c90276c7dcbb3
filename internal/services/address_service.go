package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
	"gorm.io/gorm"
)

// AddressService manages the shipping addresses of a customer.
// A customer with addresses always has exactly one default.
type AddressService interface {
	Create(ctx context.Context, customerID uint, req *models.AddressRequest) (*models.Address, error)
	List(ctx context.Context, customerID uint) ([]models.Address, error)
	Update(ctx context.Context, customerID, addressID uint, req *models.AddressRequest) (*models.Address, error)
	Delete(ctx context.Context, customerID, addressID uint) error
	SetDefault(ctx context.Context, customerID, addressID uint) (*models.Address, error)
}

type addressService struct {
	store *repository.Store
	tx    repository.TxManager
}

// NewAddressService creates a new address service
func NewAddressService(store *repository.Store, tx repository.TxManager) AddressService {
	return &addressService{store: store, tx: tx}
}

// ownedAddress loads an address and hides addresses of other customers
func ownedAddress(ctx context.Context, store *repository.Store, customerID, addressID uint) (*models.Address, error) {
	address, err := store.Addresses.GetByID(ctx, addressID)
	if err != nil {
		return nil, notFound(err, "address")
	}
	if address.CustomerID != customerID {
		return nil, fmt.Errorf("address: %w", ErrNotFound)
	}
	return address, nil
}

func (s *addressService) Create(ctx context.Context, customerID uint, req *models.AddressRequest) (*models.Address, error) {
	address := &models.Address{
		CustomerID: customerID,
		Name:       strings.TrimSpace(req.Name),
		Street:     strings.TrimSpace(req.Street),
		City:       strings.TrimSpace(req.City),
		PostalCode: strings.TrimSpace(req.PostalCode),
		IsDefault:  req.IsDefault,
	}

	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		count, err := tx.Addresses.CountByCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if count == 0 {
			address.IsDefault = true
		}
		if address.IsDefault && count > 0 {
			if err := tx.Addresses.ClearDefault(ctx, customerID); err != nil {
				return fmt.Errorf("failed to clear default address: %w", err)
			}
		}
		return tx.Addresses.Create(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *addressService) List(ctx context.Context, customerID uint) ([]models.Address, error) {
	return s.store.Addresses.ListByCustomer(ctx, customerID)
}

func (s *addressService) Update(ctx context.Context, customerID, addressID uint, req *models.AddressRequest) (*models.Address, error) {
	var address *models.Address

	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		var err error
		address, err = ownedAddress(ctx, tx, customerID, addressID)
		if err != nil {
			return err
		}

		address.Name = strings.TrimSpace(req.Name)
		address.Street = strings.TrimSpace(req.Street)
		address.City = strings.TrimSpace(req.City)
		address.PostalCode = strings.TrimSpace(req.PostalCode)

		if req.IsDefault && !address.IsDefault {
			if err := tx.Addresses.ClearDefault(ctx, customerID); err != nil {
				return fmt.Errorf("failed to clear default address: %w", err)
			}
			address.IsDefault = true
		}
		return tx.Addresses.Update(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *addressService) Delete(ctx context.Context, customerID, addressID uint) error {
	return s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		address, err := ownedAddress(ctx, tx, customerID, addressID)
		if err != nil {
			return err
		}
		if err := tx.Addresses.Delete(ctx, address.ID); err != nil {
			return notFound(err, "address")
		}
		if !address.IsDefault {
			return nil
		}

		// promote the next address so the customer keeps a default
		next, err := tx.Addresses.GetPreferred(ctx, customerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load addresses: %w", err)
		}
		next.IsDefault = true
		return tx.Addresses.Update(ctx, next)
	})
}

func (s *addressService) SetDefault(ctx context.Context, customerID, addressID uint) (*models.Address, error) {
	var address *models.Address

	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		var err error
		address, err = ownedAddress(ctx, tx, customerID, addressID)
		if err != nil {
			return err
		}
		if address.IsDefault {
			return nil
		}
		if err := tx.Addresses.ClearDefault(ctx, customerID); err != nil {
			return fmt.Errorf("failed to clear default address: %w", err)
		}
		address.IsDefault = true
		return tx.Addresses.Update(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}
