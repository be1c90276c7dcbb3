package models

import "time"

// Cart is the single in-progress basket of a customer
type Cart struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	CustomerID uint       `json:"clienteID" gorm:"uniqueIndex;not null"`
	Status     CartStatus `json:"estado" gorm:"type:varchar(20);not null;default:'ACTIVO'"`
	CreatedAt  time.Time  `json:"fecha"`
	UpdatedAt  time.Time  `json:"-"`

	Lines    []CartLine `json:"detalles" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Customer *Customer  `json:"-" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (Cart) TableName() string {
	return "carritos"
}

// Total sums the line subtotals; the value is never stored
func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Subtotal
	}
	return total
}

// ItemCount sums quantities across lines
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// CartLine references either a product or a custom design
type CartLine struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CartID    uint      `json:"carritoID" gorm:"index;not null"`
	ProductID *uint     `json:"productoID,omitempty" gorm:"index"`
	DesignID  *uint     `json:"disenoID,omitempty" gorm:"index"`
	Quantity  int       `json:"cantidad" gorm:"not null;check:quantity >= 1"`
	UnitPrice int64     `json:"precioUnidad" gorm:"not null"`
	Subtotal  int64     `json:"subtotal" gorm:"not null"`
	IsCustom  bool      `json:"esPersonalizado" gorm:"not null;default:false"`
	AddedAt   time.Time `json:"fechaAgregado" gorm:"autoCreateTime"`

	Product *Product      `json:"producto,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Design  *CustomDesign `json:"diseno,omitempty" gorm:"foreignKey:DesignID;constraint:OnDelete:CASCADE"`
}

func (CartLine) TableName() string {
	return "detalles_carrito"
}

// Recalculate refreshes the subtotal from quantity and unit price
func (l *CartLine) Recalculate() {
	l.Subtotal = int64(l.Quantity) * l.UnitPrice
}

// Description returns the label an order line snapshots for this cart line
func (l *CartLine) Description() string {
	if l.DesignID != nil {
		return CustomDesignLabel
	}
	if l.Product != nil {
		return l.Product.Name
	}
	return ""
}

// CartView is the cart as returned to clients
type CartView struct {
	Cart
	Total     int64 `json:"total"`
	ItemCount int   `json:"cantidadItems"`
}

// NewCartView wraps a cart with its computed totals
func NewCartView(cart *Cart) *CartView {
	return &CartView{Cart: *cart, Total: cart.Total(), ItemCount: cart.ItemCount()}
}

// AddProductToCartRequest adds a catalog product to the cart
type AddProductToCartRequest struct {
	ProductID uint `json:"productoID" form:"productoID" binding:"required"`
	Quantity  int  `json:"cantidad" form:"cantidad" binding:"required,gte=1"`
}

// AddDesignToCartRequest adds a priced custom design to the cart
type AddDesignToCartRequest struct {
	DesignID uint `json:"disenoID" form:"disenoID" binding:"required"`
}

// UpdateCartQuantityRequest changes the quantity of a cart line
type UpdateCartQuantityRequest struct {
	Quantity int `json:"cantidad" form:"cantidad" binding:"required,gte=1"`
}

// Wishlist is the single saved-for-later list of a customer
type Wishlist struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CustomerID uint      `json:"clienteID" gorm:"uniqueIndex;not null"`
	CreatedAt  time.Time `json:"fechaCreacion"`

	Items    []WishlistItem `json:"items" gorm:"foreignKey:WishlistID;constraint:OnDelete:CASCADE"`
	Customer *Customer      `json:"-" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (Wishlist) TableName() string {
	return "wishlists"
}

// WishlistItem references a product saved by the customer
type WishlistItem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	WishlistID uint      `json:"wishlistID" gorm:"uniqueIndex:idx_wishlist_product;not null"`
	ProductID  uint      `json:"productoID" gorm:"uniqueIndex:idx_wishlist_product;not null"`
	AddedAt    time.Time `json:"fechaAgregado" gorm:"autoCreateTime"`

	Product *Product `json:"producto,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// AddWishlistItemRequest saves a product in the wishlist
type AddWishlistItemRequest struct {
	ProductID uint `json:"productoID" form:"productoID" binding:"required"`
}
