package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SaleRepository maneja las operaciones de base de datos para Sale
type SaleRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewSaleRepository crea una nueva instancia del repositorio
func NewSaleRepository(db *DB, logger *logrus.Logger) *SaleRepository {
	return &SaleRepository{
		db:     db,
		logger: logger,
	}
}

// WithinTx ejecuta fn dentro de una transacción de base de datos
func (r *SaleRepository) WithinTx(ctx context.Context, fn func(tx store.SaleTx) error) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&saleTx{tx: tx})
	})
}

type saleTx struct {
	tx *sql.Tx
}

// LockProduct bloquea la fila del producto con FOR UPDATE
func (t *saleTx) LockProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	product, err := scanProduct(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("error locking product %d", id))
	}
	return product, nil
}

// DecrementStock descuenta stock de forma condicional
func (t *saleTx) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	query := `
		UPDATE products
		SET quantity = quantity - $1
		WHERE id = $2 AND quantity >= $1
	`

	result, err := t.tx.ExecContext(ctx, query, qty, id)
	if err != nil {
		return false, mapError(err, fmt.Sprintf("error decrementing stock of product %d", id))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, mapError(err, "error getting rows affected")
	}

	return rowsAffected == 1, nil
}

// InsertSale inserta la cabecera y sus líneas
func (t *saleTx) InsertSale(ctx context.Context, sale *models.Sale) error {
	query := `
		INSERT INTO sales (buyer_id, date, total, vat)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := t.tx.QueryRowContext(ctx, query, sale.BuyerID, sale.Date, sale.Total, sale.VAT).Scan(&sale.ID)
	if err != nil {
		return mapError(err, "error inserting sale")
	}

	lineQuery := `
		INSERT INTO sale_lines (sale_id, line_no, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	for i := range sale.Lines {
		line := &sale.Lines[i]
		line.SaleID = sale.ID

		err := t.tx.QueryRowContext(ctx, lineQuery,
			line.SaleID, line.LineNo, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal,
		).Scan(&line.ID)
		if err != nil {
			return mapError(err, "error inserting sale line")
		}
	}

	return nil
}

// GetByID obtiene una venta con sus líneas
func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*models.Sale, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT s.id, s.buyer_id, u.username, s.date, s.total, s.vat
		FROM sales s
		JOIN users u ON u.id = s.buyer_id
		WHERE s.id = $1
	`

	var sale models.Sale
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sale.ID, &sale.BuyerID, &sale.BuyerUsername, &sale.Date, &sale.Total, &sale.VAT,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("error querying sale %d", id))
	}

	lines, err := r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Lines = lines
	sale.Date = sale.Date.UTC()

	return &sale, nil
}

func (r *SaleRepository) getLines(ctx context.Context, saleID int64) ([]models.SaleLine, error) {
	query := `
		SELECT l.id, l.sale_id, l.line_no, l.product_id, COALESCE(p.name, ''),
		       l.quantity, l.unit_price, l.subtotal
		FROM sale_lines l
		LEFT JOIN products p ON p.id = l.product_id
		WHERE l.sale_id = $1
		ORDER BY l.line_no
	`

	rows, err := r.db.QueryContext(ctx, query, saleID)
	if err != nil {
		return nil, mapError(err, "error querying sale lines")
	}
	defer rows.Close()

	var lines []models.SaleLine
	for rows.Next() {
		var line models.SaleLine
		err := rows.Scan(
			&line.ID, &line.SaleID, &line.LineNo, &line.ProductID, &line.ProductName,
			&line.Quantity, &line.UnitPrice, &line.Subtotal,
		)
		if err != nil {
			return nil, mapError(err, "error scanning sale line")
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating sale lines")
	}

	return lines, nil
}

// List obtiene una página de ventas (sin líneas), las más recientes primero
func (r *SaleRepository) List(ctx context.Context, page, pageSize int) ([]models.Sale, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return nil, 0, mapError(err, "error counting sales")
	}

	query := `
		SELECT s.id, s.buyer_id, u.username, s.date, s.total, s.vat
		FROM sales s
		JOIN users u ON u.id = s.buyer_id
		ORDER BY s.date DESC, s.id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, mapError(err, "error querying sales")
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var sale models.Sale
		err := rows.Scan(&sale.ID, &sale.BuyerID, &sale.BuyerUsername, &sale.Date, &sale.Total, &sale.VAT)
		if err != nil {
			return nil, 0, mapError(err, "error scanning sale")
		}
		sale.Date = sale.Date.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "error iterating sales")
	}

	return sales, total, nil
}

// MonthSummary retorna el número de ventas y la recaudación del mes de now (UTC)
func (r *SaleRepository) MonthSummary(ctx context.Context, now time.Time) (int64, decimal.Decimal, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	from, to := MonthBounds(now)
	query := `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM sales
		WHERE date >= $1 AND date < $2
	`

	var count int64
	var revenue decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&count, &revenue); err != nil {
		return 0, decimal.Zero, mapError(err, "error querying monthly summary")
	}

	return count, revenue, nil
}

// MonthBounds retorna el inicio del mes de t y el del mes siguiente, en UTC
func MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
