package models

import "time"

// Category groups products in the catalog
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"nombre" gorm:"type:varchar(120);uniqueIndex;not null"`
	Description string    `json:"descripcion" gorm:"type:text"`
	Active      bool      `json:"activo" gorm:"not null;default:true"`
	AdminID     *uint     `json:"administradorID,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"fechaCreacion"`
	UpdatedAt   time.Time `json:"fechaActualizacion"`
}

func (Category) TableName() string {
	return "categorias"
}

// Product is a sellable catalog item
type Product struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SKU          string    `json:"sku" gorm:"type:varchar(64);uniqueIndex;not null"`
	Name         string    `json:"nombre" gorm:"type:varchar(200);not null"`
	Description  string    `json:"descripcion" gorm:"type:text"`
	Price        int64     `json:"precio" gorm:"not null;check:price >= 0"`
	Stock        int       `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	ImageURL     string    `json:"imagenURL" gorm:"type:varchar(500)"`
	IsCustom     bool      `json:"esPersonalizado" gorm:"not null;default:false"`
	ColorOptions string    `json:"opcionesColor" gorm:"type:varchar(255)"`
	SizeOptions  string    `json:"opcionesTamano" gorm:"type:varchar(255)"`
	Active       bool      `json:"activo" gorm:"not null;default:true;index"`
	CategoryID   *uint     `json:"categoriaID" gorm:"index"`
	AdminID      *uint     `json:"administradorID,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"fechaCreacion"`
	UpdatedAt    time.Time `json:"fechaActualizacion"`

	Category *Category `json:"categoria,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
}

func (Product) TableName() string {
	return "productos"
}

// CreateCategoryRequest is the payload for a new category
type CreateCategoryRequest struct {
	Name        string `json:"nombre" binding:"required,max=120"`
	Description string `json:"descripcion"`
}

// UpdateCategoryRequest carries the fields of a partial category update
type UpdateCategoryRequest struct {
	Name        *string `json:"nombre,omitempty" binding:"omitempty,max=120"`
	Description *string `json:"descripcion,omitempty"`
}

// CreateProductRequest is the payload for a new product
type CreateProductRequest struct {
	SKU          string `json:"sku" binding:"required,max=64"`
	Name         string `json:"nombre" binding:"required,max=200"`
	Description  string `json:"descripcion"`
	Price        int64  `json:"precio" binding:"gte=0"`
	Stock        int    `json:"stock" binding:"gte=0"`
	ImageURL     string `json:"imagenURL"`
	IsCustom     bool   `json:"esPersonalizado"`
	ColorOptions string `json:"opcionesColor"`
	SizeOptions  string `json:"opcionesTamano"`
	CategoryID   *uint  `json:"categoriaID"`
}

// UpdateProductRequest carries the fields of a partial product update
type UpdateProductRequest struct {
	SKU          *string `json:"sku,omitempty"`
	Name         *string `json:"nombre,omitempty"`
	Description  *string `json:"descripcion,omitempty"`
	Price        *int64  `json:"precio,omitempty"`
	Stock        *int    `json:"stock,omitempty"`
	ImageURL     *string `json:"imagenURL,omitempty"`
	IsCustom     *bool   `json:"esPersonalizado,omitempty"`
	ColorOptions *string `json:"opcionesColor,omitempty"`
	SizeOptions  *string `json:"opcionesTamano,omitempty"`
	CategoryID   *uint   `json:"categoriaID,omitempty"`
}
