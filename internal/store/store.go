// Package store define los contratos de persistencia que consumen los servicios.
// Hay dos implementaciones: database (PostgreSQL) y memstore (memoria).
package store

import (
	"context"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// ProductStore persiste productos. Los errores envuelven los tipos de models.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	CreateBatch(ctx context.Context, products []*models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, page, pageSize int) ([]models.Product, int, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// UserStore persiste usuarios
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, page, pageSize int) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// SaleStore persiste ventas. WithinTx ejecuta fn en una única transacción:
// si fn devuelve error no queda ningún cambio aplicado.
type SaleStore interface {
	WithinTx(ctx context.Context, fn func(tx SaleTx) error) error
	GetByID(ctx context.Context, id int64) (*models.Sale, error)
	List(ctx context.Context, page, pageSize int) ([]models.Sale, int, error)
	MonthSummary(ctx context.Context, now time.Time) (int64, decimal.Decimal, error)
}

// SaleTx son las operaciones disponibles dentro de la transacción de una venta.
type SaleTx interface {
	// LockProduct lee el producto y lo bloquea hasta el fin de la transacción
	LockProduct(ctx context.Context, id int64) (*models.Product, error)
	// DecrementStock descuenta qty solo si quantity >= qty; false si no alcanzaba
	DecrementStock(ctx context.Context, id int64, qty int) (bool, error)
	// InsertSale guarda la venta con sus líneas y asigna los IDs
	InsertSale(ctx context.Context, sale *models.Sale) error
}
