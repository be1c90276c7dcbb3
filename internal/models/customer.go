package models

import (
	"time"

	"gorm.io/datatypes"
)

// Admin is a back-office user
type Admin struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"nombre" gorm:"type:varchar(120);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"fechaCreacion"`
	UpdatedAt    time.Time `json:"-"`
}

func (Admin) TableName() string {
	return "administradores"
}

// Customer is a registered shopper with a loyalty balance
type Customer struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"nombre" gorm:"type:varchar(120);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Phone        string    `json:"telefono" gorm:"type:varchar(30)"`
	Points       int64     `json:"puntos" gorm:"not null;default:0;check:puntos_non_negative,points >= 0"`
	Active       bool      `json:"activo" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"fechaCreacion"`
	UpdatedAt    time.Time `json:"fechaActualizacion"`

	Addresses []Address `json:"direcciones,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (Customer) TableName() string {
	return "clientes"
}

// HistoricalCustomer keeps the identity of a deleted customer so the email cannot be reused
type HistoricalCustomer struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	OriginalID uint           `json:"clienteOriginalID" gorm:"index"`
	Name       string         `json:"nombre" gorm:"type:varchar(120)"`
	Email      string         `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone      string         `json:"telefono" gorm:"type:varchar(30)"`
	DeletedBy  string         `json:"eliminadoPor" gorm:"type:varchar(60)"`
	Snapshot   datatypes.JSON `json:"resumen" gorm:"type:jsonb"`
	DeletedAt  time.Time      `json:"fechaEliminacion" gorm:"not null"`
}

func (HistoricalCustomer) TableName() string {
	return "clientes_historicos"
}

// Address is a shipping destination owned by a customer
type Address struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	CustomerID uint   `json:"clienteID" gorm:"index;not null"`
	Name       string `json:"nombre" gorm:"type:varchar(120);not null"`
	Street     string `json:"calle" gorm:"type:varchar(255);not null"`
	City       string `json:"localidad" gorm:"type:varchar(120);not null"`
	PostalCode string `json:"codigoPostal" gorm:"type:varchar(20)"`
	IsDefault  bool   `json:"esPredeterminada" gorm:"not null;default:false"`
}

func (Address) TableName() string {
	return "direcciones_envio"
}

// RecoveryRequest is a short-lived password reset token
type RecoveryRequest struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CustomerID uint      `json:"clienteID" gorm:"index;not null"`
	Token      string    `json:"-" gorm:"type:varchar(32);uniqueIndex;not null"`
	ExpiresAt  time.Time `json:"expiracion" gorm:"index;not null"`
	Used       bool      `json:"usado" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"fechaCreacion"`

	Customer *Customer `json:"-" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (RecoveryRequest) TableName() string {
	return "solicitudes_recuperacion"
}

// IsExpired reports whether the token can no longer be redeemed at the given time
func (r *RecoveryRequest) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Session is a server-side login session referenced by the signed cookie
type Session struct {
	ID            string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	PrincipalType PrincipalType `json:"tipo" gorm:"type:varchar(20);index:idx_session_principal;not null"`
	PrincipalID   uint          `json:"principalID" gorm:"index:idx_session_principal;not null"`
	ExpiresAt     time.Time     `json:"expiresAt" gorm:"index;not null"`
	IPAddress     string        `json:"-" gorm:"type:varchar(64)"`
	UserAgent     string        `json:"-" gorm:"type:varchar(255)"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func (Session) TableName() string {
	return "sesiones"
}

// IsExpired reports whether the session is past its lifetime
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
