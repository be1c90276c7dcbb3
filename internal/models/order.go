package models

import "time"

// Order is the immutable snapshot of a checkout plus its lifecycle state
type Order struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	CustomerID      *uint       `json:"clienteID" gorm:"index"`
	AddressID       *uint       `json:"direccionEnvioID" gorm:"index"`
	Status          OrderStatus `json:"estado" gorm:"type:varchar(20);not null;default:'POR PAGAR';index"`
	Total           int64       `json:"total" gorm:"not null;default:0"`
	PaidWithPoints  bool        `json:"pagadoConPuntos" gorm:"not null;default:false"`
	PointsUsed      int64       `json:"puntosUsados" gorm:"not null;default:0"`
	CustomerDeleted bool        `json:"clienteEliminado" gorm:"not null;default:false;index"`
	AdminID         *uint       `json:"administradorID,omitempty" gorm:"index"`
	CreatedAt       time.Time   `json:"fecha" gorm:"index"`
	UpdatedAt       time.Time   `json:"fechaActualizacion"`

	Lines    []OrderLine `json:"detalles,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment  *Payment    `json:"pago,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Customer *Customer   `json:"cliente,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL"`
	Address  *Address    `json:"direccionEnvio,omitempty" gorm:"foreignKey:AddressID;constraint:OnDelete:SET NULL"`
}

func (Order) TableName() string {
	return "pedidos"
}

// LinesTotal sums the subtotals of the order lines
func (o *Order) LinesTotal() int64 {
	var total int64
	for _, line := range o.Lines {
		total += line.Subtotal
	}
	return total
}

// AmountDue is what remains to be paid with money after redeemed points
func (o *Order) AmountDue() int64 {
	due := o.Total - o.PointsUsed
	if due < 0 {
		return 0
	}
	return due
}

// OrderLine is the price-at-purchase copy of a cart line
type OrderLine struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	OrderID     uint   `json:"pedidoID" gorm:"index;not null"`
	ProductID   *uint  `json:"productoID,omitempty" gorm:"index"`
	DesignID    *uint  `json:"disenoID,omitempty" gorm:"index"`
	Description string `json:"descripcion" gorm:"type:varchar(200)"`
	Quantity    int    `json:"cantidad" gorm:"not null"`
	UnitPrice   int64  `json:"precioUnidad" gorm:"not null"`
	Subtotal    int64  `json:"subtotal" gorm:"not null"`
	IsCustom    bool   `json:"esPersonalizado" gorm:"not null;default:false"`
}

func (OrderLine) TableName() string {
	return "detalles_pedido"
}

// CheckoutRequest converts the cart into an order
type CheckoutRequest struct {
	AddressID *uint `json:"direccionEnvioID,omitempty"`
}

// UpdateOrderStatusRequest is the admin payload to move an order
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"estado" binding:"required"`
}

// Payment settles an order; exactly one per order
type Payment struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	OrderID         uint          `json:"pedidoID" gorm:"uniqueIndex;not null"`
	Method          PaymentMethod `json:"metodo" gorm:"type:varchar(20);not null;default:'NEQUI'"`
	Amount          int64         `json:"monto" gorm:"not null;default:0"`
	Confirmed       bool          `json:"confirmado" gorm:"not null;default:false;index"`
	CustomerDeleted bool          `json:"clienteEliminado" gorm:"not null;default:false"`
	Reference       *string       `json:"referencia,omitempty" gorm:"type:varchar(120);uniqueIndex"`
	CheckoutURL     string        `json:"urlCheckout,omitempty" gorm:"type:varchar(500)"`
	GatewayStatus   string        `json:"estadoPasarela,omitempty" gorm:"type:varchar(30)"`
	AdminID         *uint         `json:"administradorID,omitempty" gorm:"index"`
	PaidAt          time.Time     `json:"fechaPago"`
	ConfirmedAt     *time.Time    `json:"fechaConfirmacion,omitempty"`
}

func (Payment) TableName() string {
	return "pagos"
}

// CreatePaymentRequest opens the payment of an order
type CreatePaymentRequest struct {
	OrderID   uint          `json:"pedidoID" binding:"required"`
	Method    PaymentMethod `json:"metodo" binding:"required"`
	UsePoints bool          `json:"usarPuntos"`
	Points    int64         `json:"puntos" binding:"gte=0"`
}

// PointsTransaction is an append-only loyalty ledger entry
type PointsTransaction struct {
	ID          uint                  `json:"id" gorm:"primaryKey"`
	CustomerID  uint                  `json:"clienteID" gorm:"index;not null"`
	Type        PointsTransactionType `json:"tipo" gorm:"type:varchar(20);not null"`
	Amount      int64                 `json:"cantidad" gorm:"not null;check:amount > 0"`
	OrderID     *uint                 `json:"pedidoID,omitempty" gorm:"index"`
	Description string                `json:"descripcion" gorm:"type:varchar(255)"`
	CreatedAt   time.Time             `json:"fecha" gorm:"index"`

	Customer *Customer `json:"-" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (PointsTransaction) TableName() string {
	return "transacciones_puntos"
}

// PointsAdjustmentRequest is an admin-issued ledger entry
type PointsAdjustmentRequest struct {
	CustomerID  uint                  `json:"clienteID" binding:"required"`
	Type        PointsTransactionType `json:"tipo" binding:"required"`
	Amount      int64                 `json:"cantidad" binding:"required,gt=0"`
	Description string                `json:"descripcion"`
}

// PointsStatement is a customer's balance with its ledger
type PointsStatement struct {
	Balance      int64               `json:"saldo"`
	Transactions []PointsTransaction `json:"transacciones"`
}
