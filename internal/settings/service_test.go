package settings

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/enums"
	"github.com/renelygems/storefront-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Setting{}))

	logg := logger.New(logger.Options{ServiceName: "settings-test", Output: io.Discard})
	svc, err := NewService(NewRepository(conn), logg)
	require.NoError(t, err)
	return svc, conn
}

func TestCurrent_EmptyTableUsesDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	got := svc.Current(context.Background())

	assert.Equal(t, enums.CurrencyUSD, got.Currency)
	assert.True(t, got.TaxRate.Equal(decimal.RequireFromString("0.13")), "tax rate %s", got.TaxRate)
	assert.True(t, got.ShippingFee.Equal(decimal.RequireFromString("3.50")), "shipping fee %s", got.ShippingFee)
	assert.True(t, got.FreeShippingThreshold.Equal(decimal.RequireFromString("25.00")), "threshold %s", got.FreeShippingThreshold)
}

func TestCurrent_ReadsStoredRows(t *testing.T) {
	svc, conn := newTestService(t)
	seed := []models.Setting{
		{Key: KeyCurrency, Value: `"EUR"`},
		{Key: KeyTaxRate, Value: `0.20`},
		{Key: KeyShippingFee, Value: `5.00`},
		{Key: KeyFreeShippingThreshold, Value: `50`},
	}
	for _, row := range seed {
		require.NoError(t, conn.Create(&row).Error)
	}

	got := svc.Current(context.Background())

	assert.Equal(t, enums.CurrencyEUR, got.Currency)
	assert.True(t, got.TaxRate.Equal(decimal.RequireFromString("0.20")))
	assert.True(t, got.ShippingFee.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, got.FreeShippingThreshold.Equal(decimal.RequireFromString("50")))
}

func TestCurrent_BadRowFallsBackPerKey(t *testing.T) {
	svc, conn := newTestService(t)
	require.NoError(t, conn.Create(&models.Setting{Key: KeyTaxRate, Value: `"not-a-number"`}).Error)
	require.NoError(t, conn.Create(&models.Setting{Key: KeyShippingFee, Value: `4.25`}).Error)

	got := svc.Current(context.Background())

	assert.True(t, got.TaxRate.Equal(decimal.RequireFromString("0.13")), "bad row should fall back")
	assert.True(t, got.ShippingFee.Equal(decimal.RequireFromString("4.25")), "good row should win")
}

func TestUpdate_PersistsAndReturnsSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	currency := enums.CurrencyGBP
	rate := decimal.RequireFromString("0.05")

	got, err := svc.Update(context.Background(), UpdateInput{
		Currency: &currency,
		TaxRate:  &rate,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.CurrencyGBP, got.Currency)
	assert.True(t, got.TaxRate.Equal(rate))
	assert.True(t, got.ShippingFee.Equal(decimal.RequireFromString("3.50")), "untouched keys keep defaults")

	// second update overwrites the same key
	rate2 := decimal.RequireFromString("0.07")
	got, err = svc.Update(context.Background(), UpdateInput{TaxRate: &rate2})
	require.NoError(t, err)
	assert.True(t, got.TaxRate.Equal(rate2))
}

func TestUpdate_RejectsInvalidValues(t *testing.T) {
	svc, _ := newTestService(t)

	bad := enums.Currency("DOGE")
	_, err := svc.Update(context.Background(), UpdateInput{Currency: &bad})
	assert.Error(t, err)

	negative := decimal.RequireFromString("-0.01")
	_, err = svc.Update(context.Background(), UpdateInput{TaxRate: &negative})
	assert.Error(t, err)
	whole := decimal.RequireFromString("1.00")
	_, err = svc.Update(context.Background(), UpdateInput{TaxRate: &whole})
	assert.Error(t, err, "tax rate is a fraction, not a percentage")
	_, err = svc.Update(context.Background(), UpdateInput{ShippingFee: &negative})
	assert.Error(t, err)
	_, err = svc.Update(context.Background(), UpdateInput{FreeShippingThreshold: &negative})
	assert.Error(t, err)
}
