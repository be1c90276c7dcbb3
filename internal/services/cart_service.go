package services

import (
	"context"
	"fmt"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/repository"
)

// CartService manages the single active cart of each customer
type CartService interface {
	GetCart(ctx context.Context, customerID uint) (*models.CartView, error)
	AddProduct(ctx context.Context, customerID uint, req *models.AddProductToCartRequest) (*models.CartView, error)
	AddDesign(ctx context.Context, customerID uint, req *models.AddDesignToCartRequest) (*models.CartView, error)
	UpdateQuantity(ctx context.Context, customerID, lineID uint, quantity int) (*models.CartView, error)
	RemoveLine(ctx context.Context, customerID, lineID uint) (*models.CartView, error)
	Clear(ctx context.Context, customerID uint) error
}

type cartService struct {
	store *repository.Store
}

// NewCartService creates a new cart service
func NewCartService(store *repository.Store) CartService {
	return &cartService{store: store}
}

func (s *cartService) GetCart(ctx context.Context, customerID uint) (*models.CartView, error) {
	cart, err := s.store.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return models.NewCartView(cart), nil
}

func (s *cartService) AddProduct(ctx context.Context, customerID uint, req *models.AddProductToCartRequest) (*models.CartView, error) {
	if err := addProductToCart(ctx, s.store, customerID, req.ProductID, req.Quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, customerID)
}

// addProductToCart merges quantity into the product's cart line; the resulting quantity may not exceed stock
func addProductToCart(ctx context.Context, store *repository.Store, customerID, productID uint, quantity int) error {
	if quantity < 1 {
		return validation("quantity must be at least 1")
	}

	product, err := store.Products.GetByID(ctx, productID)
	if err != nil {
		return notFound(err, "product")
	}
	if !product.Active {
		return fmt.Errorf("product: %w", ErrNotFound)
	}

	cart, err := store.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	line, err := store.Carts.FindProductLine(ctx, cart.ID, productID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to load cart line: %w", err)
	}

	if line == nil {
		if quantity > product.Stock {
			return fmt.Errorf("only %d units of %s available: %w", product.Stock, product.Name, ErrInsufficientStock)
		}
		line = &models.CartLine{
			CartID:    cart.ID,
			ProductID: &product.ID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		}
		return store.Carts.CreateLine(ctx, line)
	}

	total := line.Quantity + quantity
	if total > product.Stock {
		return fmt.Errorf("only %d units of %s available: %w", product.Stock, product.Name, ErrInsufficientStock)
	}
	line.Quantity = total
	line.UnitPrice = product.Price
	return store.Carts.UpdateLine(ctx, line)
}

func (s *cartService) AddDesign(ctx context.Context, customerID uint, req *models.AddDesignToCartRequest) (*models.CartView, error) {
	design, err := s.store.Designs.GetByID(ctx, req.DesignID)
	if err != nil {
		return nil, notFound(err, "design")
	}
	if design.CustomerID != customerID {
		return nil, fmt.Errorf("design: %w", ErrNotFound)
	}
	if design.EstimatedPrice <= 0 {
		return nil, validation("design has not been priced yet")
	}

	cart, err := s.store.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	inCart, err := s.store.Carts.DesignInCart(ctx, cart.ID, design.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check cart: %w", err)
	}
	if inCart {
		return nil, fmt.Errorf("design already in cart: %w", ErrConflict)
	}

	line := &models.CartLine{
		CartID:    cart.ID,
		DesignID:  &design.ID,
		Quantity:  1,
		UnitPrice: design.EstimatedPrice,
		IsCustom:  true,
	}
	if err := s.store.Carts.CreateLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add design: %w", err)
	}
	return s.GetCart(ctx, customerID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, customerID, lineID uint, quantity int) (*models.CartView, error) {
	if quantity < 1 {
		return nil, validation("quantity must be at least 1")
	}

	cart, err := s.store.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	line, err := s.store.Carts.GetLine(ctx, cart.ID, lineID)
	if err != nil {
		return nil, notFound(err, "cart line")
	}

	if line.DesignID != nil && quantity != 1 {
		return nil, validation("custom design lines have a fixed quantity of 1")
	}
	if line.Product != nil {
		if !line.Product.Active {
			return nil, validation("product %s is no longer available", line.Product.Name)
		}
		if quantity > line.Product.Stock {
			return nil, fmt.Errorf("only %d units of %s available: %w", line.Product.Stock, line.Product.Name, ErrInsufficientStock)
		}
	}

	line.Quantity = quantity
	line.Product = nil
	line.Design = nil
	if err := s.store.Carts.UpdateLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to update cart line: %w", err)
	}
	return s.GetCart(ctx, customerID)
}

func (s *cartService) RemoveLine(ctx context.Context, customerID, lineID uint) (*models.CartView, error) {
	cart, err := s.store.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := s.store.Carts.DeleteLine(ctx, cart.ID, lineID); err != nil {
		if conditionNotMet(err) {
			return nil, fmt.Errorf("cart line: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to remove cart line: %w", err)
	}
	return s.GetCart(ctx, customerID)
}

func (s *cartService) Clear(ctx context.Context, customerID uint) error {
	cart, err := s.store.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	return s.store.Carts.ClearLines(ctx, cart.ID)
}
