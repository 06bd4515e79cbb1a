package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(name string, qty int) *models.Product {
	return &models.Product{Name: name, Price: decimal.RequireFromString("2.00"), Quantity: qty}
}

func TestUserStore_UniqueUsernameAndEmail(t *testing.T) {
	users := New().Users()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &models.User{Username: "ana", Email: "ana@example.com"}))

	err := users.Create(ctx, &models.User{Username: "ana", Email: "other@example.com"})
	assert.True(t, errors.Is(err, models.ErrConflict))

	err = users.Create(ctx, &models.User{Username: "beto", Email: "ana@example.com"})
	assert.True(t, errors.Is(err, models.ErrConflict))
}

// Igual que el índice único de Postgres: la comparación distingue mayúsculas
func TestUserStore_UsernamesAreCaseSensitive(t *testing.T) {
	users := New().Users()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &models.User{Username: "ana", Email: "ana@example.com"}))

	upper := &models.User{Username: "ANA", Email: "Ana@Example.com"}
	require.NoError(t, users.Create(ctx, upper))

	got, err := users.GetByUsername(ctx, "ANA")
	require.NoError(t, err)
	assert.Equal(t, upper.ID, got.ID)

	_, err = users.GetByUsername(ctx, "Ana")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestSaleStore_RollbackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	product := newProduct("P1", 5)
	require.NoError(t, s.Products().Create(ctx, product))

	boom := errors.New("boom")
	err := s.Sales().WithinTx(ctx, func(tx store.SaleTx) error {
		ok, err := tx.DecrementStock(ctx, product.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)

		locked, err := tx.LockProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, locked.Quantity, "pending decrements are visible inside the transaction")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Products().GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
}

func TestSaleStore_ConditionalDecrement(t *testing.T) {
	s := New()
	ctx := context.Background()
	product := newProduct("P1", 2)
	require.NoError(t, s.Products().Create(ctx, product))

	err := s.Sales().WithinTx(ctx, func(tx store.SaleTx) error {
		ok, err := tx.DecrementStock(ctx, product.ID, 2)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.DecrementStock(ctx, product.ID, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	got, err := s.Products().GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

func TestSaleStore_InsertAndRead(t *testing.T) {
	s := New()
	ctx := context.Background()

	buyer := &models.User{Username: "ana", Email: "ana@example.com"}
	require.NoError(t, s.Users().Create(ctx, buyer))
	product := newProduct("P1", 5)
	require.NoError(t, s.Products().Create(ctx, product))

	march := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	insert := func(date time.Time, total string) *models.Sale {
		sale := &models.Sale{
			BuyerID: buyer.ID,
			Date:    date,
			Total:   decimal.RequireFromString(total),
			Lines:   []models.SaleLine{{LineNo: 1, ProductID: product.ID, Quantity: 1}},
		}
		require.NoError(t, s.Sales().WithinTx(ctx, func(tx store.SaleTx) error {
			return tx.InsertSale(ctx, sale)
		}))
		return sale
	}

	first := insert(march, "10")
	second := insert(march.Add(time.Hour), "5")
	insert(march.AddDate(0, 1, 0), "100")

	got, err := s.Sales().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.BuyerUsername)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "P1", got.Lines[0].ProductName)
	assert.Equal(t, first.ID, got.Lines[0].SaleID)

	list, total, err := s.Sales().List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID+1, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Nil(t, list[0].Lines)

	count, revenue, err := s.Sales().MonthSummary(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, revenue.Equal(decimal.RequireFromString("15")))

	// Con ventas registradas ni el producto ni el comprador pueden eliminarse
	assert.True(t, errors.Is(s.Products().Delete(ctx, product.ID), models.ErrConflict))
	assert.True(t, errors.Is(s.Users().Delete(ctx, buyer.ID), models.ErrConflict))
}

func TestSaleStore_InsertRequiresKnownBuyer(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Sales().WithinTx(ctx, func(tx store.SaleTx) error {
		return tx.InsertSale(ctx, &models.Sale{BuyerID: "missing"})
	})
	assert.True(t, errors.Is(err, models.ErrConflict))
}
