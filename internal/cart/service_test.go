package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/internal/catalog"
	"github.com/renelygems/storefront-backend/internal/settings"
	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/enums"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
)

type staticSettings struct{}

func (staticSettings) Current(context.Context) settings.Settings {
	return testSettings()
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.CartItem{}))

	svc, err := NewService(NewRepository(db), catalog.NewRepository(db), staticSettings{})
	require.NoError(t, err)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, price string, salePrice *string, stock int, status enums.ProductStatus) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:     uuid.New(),
		Name:   "Moonstone Earrings",
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: status,
	}
	if salePrice != nil {
		sale := decimal.RequireFromString(*salePrice)
		product.SalePrice = &sale
	}
	require.NoError(t, db.Create(&product).Error)
	return product.ID
}

func TestAddItem_MergesQuantities(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db, "10.00", nil, 20, enums.ProductStatusPublished)

	view, err := svc.AddItem(ctx, userID, productID, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	view, err = svc.AddItem(ctx, userID, productID, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1, "same product merges into one line")
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.True(t, view.Totals.Subtotal.Equal(d("50.00")))
}

func TestAddItem_RejectsUnknownOrUnpublished(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.AddItem(ctx, userID, uuid.New(), 1)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	draft := seedProduct(t, db, "10.00", nil, 5, enums.ProductStatusDraft)
	_, err = svc.AddItem(ctx, userID, draft, 1)
	require.Error(t, err)

	published := seedProduct(t, db, "10.00", nil, 5, enums.ProductStatusPublished)
	_, err = svc.AddItem(ctx, userID, published, 0)
	require.Error(t, err, "zero quantity is invalid on add")
}

func TestSetQuantity(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db, "8.00", nil, 10, enums.ProductStatusPublished)

	_, err := svc.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)

	view, err := svc.SetQuantity(ctx, userID, productID, 4)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Quantity)

	// zero removes the line
	view, err = svc.SetQuantity(ctx, userID, productID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	// missing line is not found
	_, err = svc.SetQuantity(ctx, userID, productID, 2)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAddItem_StopsAtAvailableStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db, "10.00", nil, 3, enums.ProductStatusPublished)

	for i := 0; i < 3; i++ {
		_, err := svc.AddItem(ctx, userID, productID, 1)
		require.NoError(t, err)
	}

	_, err := svc.AddItem(ctx, userID, productID, 1)
	require.Error(t, err, "line quantity may not exceed stock")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, productID.String(), details["product_id"])

	view, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity, "failed add leaves the cart unchanged")
}

func TestAddItem_SnapshotsPriceAtAddTime(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db, "10.00", nil, 10, enums.ProductStatusPublished)

	_, err := svc.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", productID).Update("price", "99.00").Error)

	view, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].UnitPrice.Equal(d("10.00")), "line keeps the price it was added at, got %s", view.Items[0].UnitPrice)
	assert.True(t, view.Totals.Subtotal.Equal(d("10.00")))

	// merging more units keeps the original snapshot too
	view, err = svc.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)
	assert.True(t, view.Items[0].UnitPrice.Equal(d("10.00")))
	assert.True(t, view.Totals.Subtotal.Equal(d("20.00")))
}

func TestSetQuantity_RejectsMoreThanStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db, "8.00", nil, 5, enums.ProductStatusPublished)

	_, err := svc.AddItem(ctx, userID, productID, 2)
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, userID, productID, 50)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	view, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity, "rejected update leaves the line unchanged")
}

func TestRemoveItem_IsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db, "8.00", nil, 10, enums.ProductStatusPublished)

	_, err := svc.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)

	view, err := svc.RemoveItem(ctx, userID, productID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = svc.RemoveItem(ctx, userID, productID)
	require.NoError(t, err, "removing an absent line is a no-op")
}

func TestGet_UsesSalePriceAndSkipsVanishedProducts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	sale := "7.50"
	onSale := seedProduct(t, db, "10.00", &sale, 10, enums.ProductStatusPublished)
	doomed := seedProduct(t, db, "99.00", nil, 10, enums.ProductStatusPublished)

	_, err := svc.AddItem(ctx, userID, onSale, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, doomed, 1)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.Product{}, "id = ?", doomed).Error)

	view, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1, "deleted product line is skipped")
	assert.True(t, view.Items[0].UnitPrice.Equal(d("7.50")), "sale price wins")
	assert.True(t, view.Totals.Subtotal.Equal(d("15.00")))
}

func TestClear(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()
	productID := seedProduct(t, db, "8.00", nil, 10, enums.ProductStatusPublished)

	_, err := svc.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, other, productID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, userID))

	view, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	otherView, err := svc.Get(ctx, other)
	require.NoError(t, err)
	assert.Len(t, otherView.Items, 1, "other carts are untouched")
}
