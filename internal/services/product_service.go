package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	maxProductNameLength     = 100
	maxProductCategoryLength = 50
)

// ProductService maneja la lógica de negocio para Product
type ProductService struct {
	productRepo store.ProductStore
	pageSize    int
	logger      *logrus.Logger
}

// NewProductService crea una nueva instancia del servicio
func NewProductService(productRepo store.ProductStore, pageSize int, logger *logrus.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		pageSize:    pageSize,
		logger:      logger,
	}
}

// Create crea un nuevo producto
func (s *ProductService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	product, err := NewProductFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"name":       product.Name,
		"price":      product.Price.String(),
		"quantity":   product.Quantity,
	}).Info("Product created successfully")

	return product, nil
}

// GetByID obtiene un producto por ID
func (s *ProductService) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting product: %w", err)
	}

	return product, nil
}

// List obtiene una página del catálogo
func (s *ProductService) List(ctx context.Context, page int) (models.Page[models.Product], error) {
	page = normalizePage(page)

	products, total, err := s.productRepo.List(ctx, page, s.pageSize)
	if err != nil {
		return models.Page[models.Product]{}, fmt.Errorf("error listing products: %w", err)
	}

	return models.NewPage(products, page, s.pageSize, total), nil
}

// Update actualiza un producto existente
func (s *ProductService) Update(ctx context.Context, id int64, req *models.CreateProductRequest) (*models.Product, error) {
	product, err := NewProductFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.ID = id

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("error updating product: %w", err)
	}

	s.logger.WithField("product_id", id).Info("Product updated successfully")

	return s.GetByID(ctx, id)
}

// Delete elimina un producto
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting product: %w", err)
	}

	s.logger.WithField("product_id", id).Info("Product deleted successfully")
	return nil
}

// NewProductFromRequest valida el request y construye el producto
func NewProductFromRequest(req *models.CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		Quantity: req.Quantity,
		Category: strings.TrimSpace(req.Category),
	}

	if err := ValidateProduct(product); err != nil {
		return nil, err
	}
	return product, nil
}

// ValidateProduct valida los datos de un producto
func ValidateProduct(product *models.Product) error {
	verr := &models.ValidationError{}

	if product.Name == "" {
		verr.Add("name", "is required")
	} else if utf8.RuneCountInString(product.Name) > maxProductNameLength {
		verr.Add("name", fmt.Sprintf("must be at most %d characters", maxProductNameLength))
	}

	if !product.Price.IsPositive() {
		verr.Add("price", "must be greater than 0")
	} else if !product.Price.Equal(product.Price.Round(2)) {
		verr.Add("price", "must have at most 2 decimal places")
	}

	if product.Quantity < 0 {
		verr.Add("quantity", "must not be negative")
	}

	if utf8.RuneCountInString(product.Category) > maxProductCategoryLength {
		verr.Add("category", fmt.Sprintf("must be at most %d characters", maxProductCategoryLength))
	}

	return verr.OrNil()
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
