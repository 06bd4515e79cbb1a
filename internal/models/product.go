package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo
type Product struct {
	ID        int64           `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Name      string          `json:"name" db:"name" gorm:"size:100;not null"`
	Price     decimal.Decimal `json:"price" db:"price" gorm:"type:numeric(12,2);not null"`
	Quantity  int             `json:"quantity" db:"quantity" gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0"`
	Category  string          `json:"category,omitempty" db:"category" gorm:"size:50;not null;default:''"`
	CreatedAt time.Time       `json:"created_at" db:"created_at" gorm:"not null"`
}

// CreateProductRequest representa el request para crear/actualizar un producto
type CreateProductRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Category string          `json:"category"`
}

// ImportRowIssue describe una fila de la hoja de cálculo que no se importó
type ImportRowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult resume una importación masiva de productos
type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  []ImportRowIssue `json:"skipped"`
}
