package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/sirupsen/logrus"
)

const productColumns = `id, name, price, quantity, category, created_at`

// ProductRepository maneja las operaciones de base de datos para Product
type ProductRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewProductRepository crea una nueva instancia del repositorio
func NewProductRepository(db *DB, logger *logrus.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	err := row.Scan(
		&product.ID, &product.Name, &product.Price,
		&product.Quantity, &product.Category, &product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create crea un nuevo producto y asigna su ID
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.insert(ctx, r.db, product)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *ProductRepository) insert(ctx context.Context, q queryRower, product *models.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO products (name, price, quantity, category, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		product.Name, product.Price, product.Quantity, product.Category, product.CreatedAt,
	).Scan(&product.ID)
	if err != nil {
		return mapError(err, "error creating product")
	}

	return nil
}

// CreateBatch crea varios productos en una sola transacción
func (r *ProductRepository) CreateBatch(ctx context.Context, products []*models.Product) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, product := range products {
			if err := r.insert(ctx, tx, product); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID obtiene un producto por ID
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("error querying product %d", id))
	}

	return product, nil
}

// List obtiene una página de productos y el total
func (r *ProductRepository) List(ctx context.Context, page, pageSize int) ([]models.Product, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, mapError(err, "error counting products")
	}

	query := `SELECT ` + productColumns + ` FROM products ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, mapError(err, "error querying products")
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, mapError(err, "error scanning product")
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "error iterating products")
	}

	return products, total, nil
}

// Update actualiza un producto existente
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, price = $2, quantity = $3, category = $4
		WHERE id = $5
	`

	result, err := r.db.ExecWithTimeout(ctx, query,
		product.Name, product.Price, product.Quantity, product.Category, product.ID,
	)
	if err != nil {
		return mapError(err, "error updating product")
	}

	return requireAffected(result, fmt.Sprintf("product %d", product.ID))
}

// Delete elimina un producto. Falla con conflicto si tiene ventas asociadas.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecWithTimeout(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "error deleting product")
	}

	return requireAffected(result, fmt.Sprintf("product %d", id))
}

// Count retorna el número total de productos
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, mapError(err, "error counting products")
	}
	return count, nil
}

// requireAffected convierte cero filas afectadas en ErrNotFound
func requireAffected(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapError(err, "error getting rows affected")
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}
