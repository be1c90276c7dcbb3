package services

import (
	"context"
	"fmt"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

// WishlistService manages saved-for-later products
type WishlistService interface {
	Get(ctx context.Context, customerID uint) (*models.Wishlist, error)
	Add(ctx context.Context, customerID uint, req *models.AddWishlistItemRequest) (*models.Wishlist, error)
	Remove(ctx context.Context, customerID, itemID uint) error
	// MoveToCart adds one unit of the item's product to the cart and drops the item
	MoveToCart(ctx context.Context, customerID, itemID uint) (*models.CartView, error)
}

type wishlistService struct {
	store *repository.Store
	tx    repository.TxManager
	carts CartService
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(store *repository.Store, tx repository.TxManager, carts CartService) WishlistService {
	return &wishlistService{store: store, tx: tx, carts: carts}
}

func (s *wishlistService) Get(ctx context.Context, customerID uint) (*models.Wishlist, error) {
	wishlist, err := s.store.Wishlists.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return wishlist, nil
}

func (s *wishlistService) Add(ctx context.Context, customerID uint, req *models.AddWishlistItemRequest) (*models.Wishlist, error) {
	product, err := s.store.Products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !product.Active {
		return nil, fmt.Errorf("product: %w", ErrNotFound)
	}

	wishlist, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	exists, err := s.store.Wishlists.ItemExists(ctx, wishlist.ID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check wishlist: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("product already in wishlist: %w", ErrConflict)
	}

	item := &models.WishlistItem{WishlistID: wishlist.ID, ProductID: product.ID}
	if err := s.store.Wishlists.AddItem(ctx, item); err != nil {
		return nil, duplicate(err, "wishlist item")
	}
	return s.Get(ctx, customerID)
}

func (s *wishlistService) Remove(ctx context.Context, customerID, itemID uint) error {
	wishlist, err := s.Get(ctx, customerID)
	if err != nil {
		return err
	}
	if err := s.store.Wishlists.DeleteItem(ctx, wishlist.ID, itemID); err != nil {
		if conditionNotMet(err) {
			return fmt.Errorf("wishlist item: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}

func (s *wishlistService) MoveToCart(ctx context.Context, customerID, itemID uint) (*models.CartView, error) {
	err := s.tx.WithinTransaction(ctx, func(tx *repository.Store) error {
		wishlist, err := tx.Wishlists.GetOrCreate(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to load wishlist: %w", err)
		}
		item, err := tx.Wishlists.GetItem(ctx, wishlist.ID, itemID)
		if err != nil {
			return notFound(err, "wishlist item")
		}

		if err := addProductToCart(ctx, tx, customerID, item.ProductID, 1); err != nil {
			return err
		}
		if err := tx.Wishlists.DeleteItem(ctx, wishlist.ID, item.ID); err != nil {
			return fmt.Errorf("failed to remove wishlist item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.carts.GetCart(ctx, customerID)
}
