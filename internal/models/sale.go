package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NotificationStatus representa el resultado del envío del recibo
type NotificationStatus string

const (
	NotificationDelivered    NotificationStatus = "delivered"
	NotificationFailedLogged NotificationStatus = "failed-logged"
	NotificationSkipped      NotificationStatus = "skipped"
)

// Sale representa una venta confirmada con sus líneas
type Sale struct {
	ID                 int64              `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	BuyerID            string             `json:"user_id" db:"buyer_id" gorm:"type:uuid;not null;index"`
	Buyer              *User              `json:"-" gorm:"foreignKey:BuyerID;constraint:OnDelete:RESTRICT"`
	BuyerUsername      string             `json:"username" db:"-" gorm:"-"`
	Date               time.Time          `json:"date" db:"date" gorm:"not null;index"`
	Total              decimal.Decimal    `json:"total" db:"total" gorm:"type:numeric(14,2);not null"`
	VAT                decimal.Decimal    `json:"vat" db:"vat" gorm:"type:numeric(14,4);not null"`
	Lines              []SaleLine         `json:"lines" gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	NotificationStatus NotificationStatus `json:"notification_status,omitempty" db:"-" gorm:"-"`
}

// SaleLine representa una línea de venta con el precio congelado al momento de la venta
type SaleLine struct {
	ID          int64           `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	SaleID      int64           `json:"sale_id" db:"sale_id" gorm:"not null;index"`
	LineNo      int             `json:"line_no" db:"line_no" gorm:"not null"`
	ProductID   int64           `json:"product_id" db:"product_id" gorm:"not null;index"`
	Product     *Product        `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	ProductName string          `json:"product_name,omitempty" db:"-" gorm:"-"`
	Quantity    int             `json:"quantity" db:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price" gorm:"type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal" gorm:"type:numeric(14,2);not null"`
}

// SaleLineRequest representa una línea solicitada
type SaleLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateSaleRequest representa el request para registrar una venta.
// El comprador se identifica por user_id o, si falta, por username.
type CreateSaleRequest struct {
	UserID   string            `json:"user_id"`
	Username string            `json:"username"`
	Details  []SaleLineRequest `json:"details"`
}

// SaleResponse representa la respuesta al crear o consultar una venta
type SaleResponse struct {
	ID                 int64              `json:"id"`
	Date               string             `json:"date"`
	Total              decimal.Decimal    `json:"total"`
	VAT                decimal.Decimal    `json:"vat"`
	UserID             string             `json:"user_id"`
	Username           string             `json:"username,omitempty"`
	NotificationStatus NotificationStatus `json:"notification_status,omitempty"`
	Lines              []SaleLine         `json:"lines,omitempty"`
	Links              Links              `json:"links"`
}

// Links representa los enlaces relacionados
type Links struct {
	Self string `json:"self"`
}

// NewSaleResponse construye la respuesta pública de una venta
func NewSaleResponse(sale *Sale) SaleResponse {
	return SaleResponse{
		ID:                 sale.ID,
		Date:               sale.Date.UTC().Format(time.RFC3339),
		Total:              sale.Total,
		VAT:                sale.VAT,
		UserID:             sale.BuyerID,
		Username:           sale.BuyerUsername,
		NotificationStatus: sale.NotificationStatus,
		Lines:              sale.Lines,
		Links: Links{
			Self: fmt.Sprintf("/api/v1/sales/%d", sale.ID),
		},
	}
}

// Dashboard representa los indicadores del panel de administración
type Dashboard struct {
	Month            string          `json:"month"`
	TotalProducts    int64           `json:"total_products"`
	TotalUsers       int64           `json:"total_users"`
	SalesThisMonth   int64           `json:"sales_this_month"`
	RevenueThisMonth decimal.Decimal `json:"revenue_this_month"`
}

// Page representa una página de resultados
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPage construye una página calculando el total de páginas
func NewPage[T any](items []T, page, pageSize, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
