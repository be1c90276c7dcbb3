package repository

import (
	"context"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	GetOrCreate(ctx context.Context, customerID uint) (*models.Cart, error)
	GetLine(ctx context.Context, cartID, lineID uint) (*models.CartLine, error)
	FindProductLine(ctx context.Context, cartID, productID uint) (*models.CartLine, error)
	DesignInCart(ctx context.Context, cartID, designID uint) (bool, error)
	CreateLine(ctx context.Context, line *models.CartLine) error
	UpdateLine(ctx context.Context, line *models.CartLine) error
	DeleteLine(ctx context.Context, cartID, lineID uint) error
	ClearLines(ctx context.Context, cartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreate returns the customer's cart with its lines, creating it on first use.
// The unique index on customer_id makes concurrent first calls converge on one row.
// The cart row is locked FOR UPDATE, so inside a transaction concurrent checkouts
// and line edits of the same cart run one after the other.
func (r *cartRepository) GetOrCreate(ctx context.Context, customerID uint) (*models.Cart, error) {
	db := r.db.WithContext(ctx)

	cart := models.Cart{CustomerID: customerID, Status: models.CartStatusActive}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoNothing: true,
	}).Create(&cart).Error; err != nil {
		return nil, err
	}

	var loaded models.Cart
	err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Lines.Product").
		Preload("Lines.Design").
		First(&loaded, "customer_id = ?", customerID).Error
	if err != nil {
		return nil, err
	}
	return &loaded, nil
}

func (r *cartRepository) GetLine(ctx context.Context, cartID, lineID uint) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Design").
		First(&line, "id = ? AND cart_id = ?", lineID, cartID).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *cartRepository) FindProductLine(ctx context.Context, cartID, productID uint) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).First(&line, "cart_id = ? AND product_id = ?", cartID, productID).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *cartRepository) DesignInCart(ctx context.Context, cartID, designID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CartLine{}).
		Where("cart_id = ? AND design_id = ?", cartID, designID).
		Count(&count).Error
	return count > 0, err
}

func (r *cartRepository) CreateLine(ctx context.Context, line *models.CartLine) error {
	line.Recalculate()
	return r.db.WithContext(ctx).Omit("Product", "Design").Create(line).Error
}

func (r *cartRepository) UpdateLine(ctx context.Context, line *models.CartLine) error {
	line.Recalculate()
	return r.db.WithContext(ctx).Model(line).Updates(map[string]interface{}{
		"quantity":   line.Quantity,
		"unit_price": line.UnitPrice,
		"subtotal":   line.Subtotal,
	}).Error
}

func (r *cartRepository) DeleteLine(ctx context.Context, cartID, lineID uint) error {
	return guarded(r.db.WithContext(ctx).Delete(&models.CartLine{}, "id = ? AND cart_id = ?", lineID, cartID))
}

func (r *cartRepository) ClearLines(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).Delete(&models.CartLine{}, "cart_id = ?", cartID).Error
}

// ==========================================
// WISHLIST
// ==========================================

type WishlistRepository interface {
	GetOrCreate(ctx context.Context, customerID uint) (*models.Wishlist, error)
	GetItem(ctx context.Context, wishlistID, itemID uint) (*models.WishlistItem, error)
	ItemExists(ctx context.Context, wishlistID, productID uint) (bool, error)
	AddItem(ctx context.Context, item *models.WishlistItem) error
	DeleteItem(ctx context.Context, wishlistID, itemID uint) error
}

type wishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository creates a new wishlist repository
func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) GetOrCreate(ctx context.Context, customerID uint) (*models.Wishlist, error) {
	db := r.db.WithContext(ctx)

	wishlist := models.Wishlist{CustomerID: customerID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoNothing: true,
	}).Create(&wishlist).Error; err != nil {
		return nil, err
	}

	var loaded models.Wishlist
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("added_at DESC") }).
		Preload("Items.Product").
		First(&loaded, "customer_id = ?", customerID).Error
	if err != nil {
		return nil, err
	}
	return &loaded, nil
}

func (r *wishlistRepository) GetItem(ctx context.Context, wishlistID, itemID uint) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&item, "id = ? AND wishlist_id = ?", itemID, wishlistID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *wishlistRepository) ItemExists(ctx context.Context, wishlistID, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WishlistItem{}).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *wishlistRepository) AddItem(ctx context.Context, item *models.WishlistItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}

func (r *wishlistRepository) DeleteItem(ctx context.Context, wishlistID, itemID uint) error {
	return guarded(r.db.WithContext(ctx).Delete(&models.WishlistItem{}, "id = ? AND wishlist_id = ?", itemID, wishlistID))
}
