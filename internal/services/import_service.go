package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Columnas de la hoja de importación; la fila 1 es la cabecera
const (
	importColName = iota
	importColPrice
	importColQuantity
	importColCategory
)

// ImportService importa productos desde una hoja de cálculo .xlsx
type ImportService struct {
	productRepo store.ProductStore
	logger      *logrus.Logger
}

// NewImportService crea una nueva instancia del servicio
func NewImportService(productRepo store.ProductStore, logger *logrus.Logger) *ImportService {
	return &ImportService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// ImportProducts lee la primera hoja (Name, Price, Quantity, Category) desde la
// fila 2. Las filas sin nombre se ignoran; las inválidas se reportan y el resto
// se inserta en una sola transacción.
func (s *ImportService) ImportProducts(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, models.NewFieldError("file", "must be a valid .xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.NewFieldError("file", "workbook has no worksheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading worksheet %q: %w", sheets[0], err)
	}

	result := &models.ImportResult{Skipped: []models.ImportRowIssue{}}
	var products []*models.Product

	for i, row := range rows {
		if i == 0 {
			continue
		}
		rowNumber := i + 1

		name := strings.TrimSpace(cell(row, importColName))
		if name == "" {
			continue
		}

		product, reason := parseProductRow(name, row)
		if reason != "" {
			result.Skipped = append(result.Skipped, models.ImportRowIssue{Row: rowNumber, Reason: reason})
			continue
		}
		products = append(products, product)
	}

	if len(products) > 0 {
		if err := s.productRepo.CreateBatch(ctx, products); err != nil {
			return nil, fmt.Errorf("error importing products: %w", err)
		}
	}
	result.Imported = len(products)

	s.logger.WithFields(logrus.Fields{
		"imported": result.Imported,
		"skipped":  len(result.Skipped),
	}).Info("Products imported")

	return result, nil
}

func parseProductRow(name string, row []string) (*models.Product, string) {
	price, err := decimal.NewFromString(strings.TrimSpace(cell(row, importColPrice)))
	if err != nil {
		return nil, "price: must be a number"
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(cell(row, importColQuantity)))
	if err != nil || !quantity.IsInteger() {
		return nil, "quantity: must be a whole number"
	}

	product := &models.Product{
		Name:     name,
		Price:    price,
		Quantity: int(quantity.IntPart()),
		Category: strings.TrimSpace(cell(row, importColCategory)),
	}

	if err := ValidateProduct(product); err != nil {
		return nil, strings.TrimPrefix(err.Error(), "validation failed: ")
	}

	return product, ""
}

// cell retorna la celda o "" si la fila es más corta
func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
