package models

import (
	"time"

	"gorm.io/datatypes"
)

// CustomDesignLabel is the product label used for custom design lines in orders and reports
const CustomDesignLabel = "Diseño personalizado"

// CustomDesign is a customer request for a bespoke piece
type CustomDesign struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	CustomerID     uint           `json:"clienteID" gorm:"index;not null"`
	ImageURL       string         `json:"imagenURL" gorm:"type:varchar(500);not null"`
	Description    string         `json:"descripcion" gorm:"type:text"`
	Data           datatypes.JSON `json:"data,omitempty" gorm:"type:jsonb"`
	Status         DesignStatus   `json:"estado" gorm:"type:varchar(20);not null;default:'ENVIADO';index"`
	EstimatedPrice int64          `json:"precioEstimado" gorm:"not null;default:0"`
	AdminID        *uint          `json:"administradorID,omitempty" gorm:"index"`
	CreatedAt      time.Time      `json:"fecha"`
	UpdatedAt      time.Time      `json:"fechaActualizacion"`

	Customer *Customer `json:"-" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (CustomDesign) TableName() string {
	return "disenos_personalizados"
}

// UpdateDesignRequest is the admin payload to price or advance a design
type UpdateDesignRequest struct {
	Status         *DesignStatus `json:"estado,omitempty"`
	EstimatedPrice *int64        `json:"precioEstimado,omitempty"`
}
