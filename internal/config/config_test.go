package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SALES_VAT_RATE", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Sales.VATRate.Equal(decimal.RequireFromString("0.19")))
	assert.Equal(t, 10, cfg.Pagination.PageSize)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SALES_VAT_RATE", "0.21")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.21", cfg.Sales.VATRate.String())
	assert.Equal(t, 25, cfg.Pagination.PageSize)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"vat of one", "SALES_VAT_RATE", "1"},
		{"negative vat", "SALES_VAT_RATE", "-0.1"},
		{"vat with three decimals", "SALES_VAT_RATE", "0.125"},
		{"zero page size", "PAGE_SIZE", "0"},
		{"unknown driver", "DB_DRIVER", "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", Name: "shop", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", cfg.GetDSN())
}
