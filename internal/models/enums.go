package models

// CartStatus is the lifecycle flag of a customer's cart
type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVO"
	CartStatusConverted CartStatus = "CONVERTIDO"
)

// OrderStatus is the lifecycle of an order
type OrderStatus string

const (
	OrderStatusToPay     OrderStatus = "POR PAGAR"
	OrderStatusPending   OrderStatus = "PENDIENTE"
	OrderStatusPaid      OrderStatus = "PAGADO"
	OrderStatusCancelled OrderStatus = "CANCELADO"
)

// IsValid reports whether the status is one of the known order states
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusToPay, OrderStatusPending, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in this state may still be cancelled
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusToPay || s == OrderStatusPending
}

// PaymentMethod is how the customer settles an order
type PaymentMethod string

const (
	PaymentMethodTransfer  PaymentMethod = "TRANSFERENCIA"
	PaymentMethodNequi     PaymentMethod = "NEQUI"
	PaymentMethodDaviplata PaymentMethod = "DAVIPLATA"
	PaymentMethodCash      PaymentMethod = "EFECTIVO"
	PaymentMethodPoints    PaymentMethod = "PUNTOS"
)

// IsValid reports whether the method is supported
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodTransfer, PaymentMethodNequi, PaymentMethodDaviplata, PaymentMethodCash, PaymentMethodPoints:
		return true
	}
	return false
}

// UsesGateway reports whether the method is settled through the hosted checkout
func (m PaymentMethod) UsesGateway() bool {
	return m == PaymentMethodTransfer || m == PaymentMethodNequi || m == PaymentMethodDaviplata
}

// PointsTransactionType distinguishes earned from redeemed ledger entries
type PointsTransactionType string

const (
	PointsEarned   PointsTransactionType = "GANADOS"
	PointsRedeemed PointsTransactionType = "REDIMIDOS"
)

// IsValid reports whether the ledger type is known
func (t PointsTransactionType) IsValid() bool {
	return t == PointsEarned || t == PointsRedeemed
}

// DesignStatus tracks a custom design request through production
type DesignStatus string

const (
	DesignStatusSubmitted    DesignStatus = "ENVIADO"
	DesignStatusInProduction DesignStatus = "EN PRODUCCION"
	DesignStatusFinished     DesignStatus = "TERMINADO"
)

var designStatusRank = map[DesignStatus]int{
	DesignStatusSubmitted:    0,
	DesignStatusInProduction: 1,
	DesignStatusFinished:     2,
}

// IsValid reports whether the design status is known
func (s DesignStatus) IsValid() bool {
	_, ok := designStatusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next keeps the workflow moving forward
func (s DesignStatus) CanAdvanceTo(next DesignStatus) bool {
	from, ok := designStatusRank[s]
	if !ok {
		return false
	}
	to, ok := designStatusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// PrincipalType identifies who owns a session
type PrincipalType string

const (
	PrincipalCustomer PrincipalType = "cliente"
	PrincipalAdmin    PrincipalType = "administrador"
)
