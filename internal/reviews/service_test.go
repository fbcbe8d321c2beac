package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/internal/orders"
	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/enums"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
	"github.com/renelygems/storefront-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.Review{}))

	svc, err := NewService(NewRepository(db), orders.NewRepository(db), gormTxRunner{db: db})
	require.NoError(t, err)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:    uuid.New(),
		Name:  "Labradorite Ring",
		Price: decimal.RequireFromString("22.00"),
		Stock: 5,
	}
	require.NoError(t, db.Create(&product).Error)
	return product.ID
}

func seedOrder(t *testing.T, db *gorm.DB, userID, productID uuid.UUID, status enums.OrderStatus) uuid.UUID {
	t.Helper()
	order := models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        status,
		PaymentMethod: enums.PaymentMethodTransfer,
		DeliveryType:  enums.DeliveryTypePickup,
		Currency:      enums.CurrencyUSD,
		Subtotal:      decimal.RequireFromString("22.00"),
		TaxAmount:     decimal.RequireFromString("2.86"),
		ShippingFee:   decimal.Zero,
		Total:         decimal.RequireFromString("24.86"),
		Items: []models.OrderItem{{
			ID:          uuid.New(),
			ProductID:   productID,
			ProductName: "Labradorite Ring",
			UnitPrice:   decimal.RequireFromString("22.00"),
			Quantity:    1,
			LineTotal:   decimal.RequireFromString("22.00"),
		}},
	}
	require.NoError(t, db.Create(&order).Error)
	return order.ID
}

func TestCreate_RequiresDeliveredPurchase(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db)

	// no order at all
	_, err := svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 5})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotEligible, typed.Code())

	// pending order does not qualify
	seedOrder(t, db, userID, productID, enums.OrderStatusPending)
	_, err = svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 5})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotEligible, typed.Code())

	// a cancelled order does not qualify either
	seedOrder(t, db, userID, productID, enums.OrderStatusCancelled)
	_, err = svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 5})
	require.Error(t, err)
}

func TestCreate_ShippedAndCompletedQualify(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db)

	shippedUser := uuid.New()
	shippedOrder := seedOrder(t, db, shippedUser, productID, enums.OrderStatusShipped)
	review, err := svc.Create(ctx, shippedUser, CreateInput{ProductID: productID, Rating: 4, Comment: " lovely stone "})
	require.NoError(t, err)
	assert.Equal(t, shippedOrder, review.OrderID)
	assert.True(t, review.Verified)
	assert.Equal(t, "lovely stone", review.Comment)

	completedUser := uuid.New()
	seedOrder(t, db, completedUser, productID, enums.OrderStatusCompleted)
	_, err = svc.Create(ctx, completedUser, CreateInput{ProductID: productID, Rating: 2})
	require.NoError(t, err)
}

func TestCreate_SecondReviewForSamePurchaseNotEligible(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db)
	seedOrder(t, db, userID, productID, enums.OrderStatusCompleted)

	_, err := svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 5})
	require.NoError(t, err)

	_, err = svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotEligible, typed.Code())
}

func TestCreate_EachPurchaseSupportsOneReview(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db)
	firstOrder := seedOrder(t, db, userID, productID, enums.OrderStatusCompleted)
	secondOrder := seedOrder(t, db, userID, productID, enums.OrderStatusShipped)

	first, err := svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 5})
	require.NoError(t, err)

	// the second review lands on the remaining unreviewed purchase
	second, err := svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 3})
	require.NoError(t, err)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.ElementsMatch(t,
		[]uuid.UUID{firstOrder, secondOrder},
		[]uuid.UUID{first.OrderID, second.OrderID})

	// both purchases reviewed, nothing left to review
	_, err = svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotEligible, typed.Code())
}

func TestCreate_SyncsProductRating(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db)

	userA := uuid.New()
	userB := uuid.New()
	seedOrder(t, db, userA, productID, enums.OrderStatusCompleted)
	seedOrder(t, db, userB, productID, enums.OrderStatusCompleted)

	_, err := svc.Create(ctx, userA, CreateInput{ProductID: productID, Rating: 5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, userB, CreateInput{ProductID: productID, Rating: 2})
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	assert.InDelta(t, 3.5, product.RatingAvg, 0.001)
	assert.Equal(t, 2, product.RatingCount)
}

func TestCreate_RatingBounds(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(t, db)
	seedOrder(t, db, userID, productID, enums.OrderStatusCompleted)

	_, err := svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 0})
	require.Error(t, err)
	_, err = svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 6})
	require.Error(t, err)
}

func TestListByProduct(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db)

	for i := 0; i < 3; i++ {
		userID := uuid.New()
		seedOrder(t, db, userID, productID, enums.OrderStatusCompleted)
		_, err := svc.Create(ctx, userID, CreateInput{ProductID: productID, Rating: 4})
		require.NoError(t, err)
	}

	page, err := svc.ListByProduct(ctx, productID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListByProduct(ctx, productID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
}
