package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hypernova-labs/retail-backoffice/internal/memstore"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// workbook arma un .xlsx en memoria con las filas dadas en la primera hoja
func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportProducts(t *testing.T) {
	mem := memstore.New()
	service := NewImportService(mem.Products(), newTestLogger())

	buf := workbook(t, [][]interface{}{
		{"Name", "Price", "Quantity", "Category"},
		{"Cuaderno", 3.5, 20, "Papelería"},
		{"", 1, 1, "sin nombre"},
		{"Borrador", "abc", 5, ""},
		{"Regla", "2.00", "1.5", ""},
		{"Tijeras", "-4", 3, ""},
		{"Marcador", "1.25", 0, "Arte"},
	})

	result, err := service.ImportProducts(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Skipped, 3)
	assert.Equal(t, models.ImportRowIssue{Row: 4, Reason: "price: must be a number"}, result.Skipped[0])
	assert.Equal(t, models.ImportRowIssue{Row: 5, Reason: "quantity: must be a whole number"}, result.Skipped[1])
	assert.Equal(t, 6, result.Skipped[2].Row)
	assert.Contains(t, result.Skipped[2].Reason, "price")

	products, total, err := mem.Products().List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	assert.Equal(t, "Cuaderno", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, 20, products[0].Quantity)
	assert.Equal(t, "Papelería", products[0].Category)
	assert.Equal(t, "Marcador", products[1].Name)
	assert.Equal(t, 0, products[1].Quantity)
}

func TestImportProducts_HeaderOnly(t *testing.T) {
	mem := memstore.New()
	service := NewImportService(mem.Products(), newTestLogger())

	result, err := service.ImportProducts(context.Background(), workbook(t, [][]interface{}{
		{"Name", "Price", "Quantity", "Category"},
	}))
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Empty(t, result.Skipped)
}

func TestImportProducts_RejectsNonWorkbook(t *testing.T) {
	service := NewImportService(memstore.New().Products(), newTestLogger())

	_, err := service.ImportProducts(context.Background(), strings.NewReader("name,price\nx,1\n"))
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "file", verr.Fields[0].Field)
}

func TestImportProducts_ReadsRawValueOfFormattedCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Name", "Price", "Quantity", "Category"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Laptop", 1234.5, 3, "Equipos"}))

	// 4 es el formato integrado "#,##0.00"
	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "B2", "B2", style))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	mem := memstore.New()
	result, err := NewImportService(mem.Products(), newTestLogger()).ImportProducts(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Skipped)

	products, _, err := mem.Products().List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("1234.5")), "price %s", products[0].Price)
}
