package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/pkg/db/models"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:    uuid.New(),
		Name:  "Rose Quartz Pendant",
		Price: decimal.RequireFromString("19.99"),
		Stock: stock,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func TestDecrementClampsAtZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	productID := seedProduct(t, db, 3)

	remaining, err := ledger.Decrement(ctx, productID, 2)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining, got %d", remaining)
	}

	remaining, err = ledger.Decrement(ctx, productID, 5)
	if err != nil {
		t.Fatalf("clamped decrement: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected clamp to zero, got %d", remaining)
	}
}

func TestIncrementAndGetStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	productID := seedProduct(t, db, 2)

	if err := ledger.Increment(ctx, productID, 4); err != nil {
		t.Fatalf("increment: %v", err)
	}
	stock, err := ledger.GetStock(ctx, productID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if stock != 6 {
		t.Fatalf("expected stock 6, got %d", stock)
	}
}

func TestLedgerUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	if _, err := ledger.GetStock(ctx, uuid.New()); err == nil {
		t.Fatal("expected not found")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ledger.Increment(ctx, uuid.New(), 1); err == nil {
		t.Fatal("expected not found")
	}
	if _, err := ledger.Decrement(ctx, uuid.New(), 1); err == nil {
		t.Fatal("expected not found")
	}
}

func TestLedgerValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()
	productID := seedProduct(t, db, 2)

	if err := ledger.Increment(ctx, productID, 0); err == nil {
		t.Fatal("expected validation error for zero qty")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ledger.Decrement(ctx, productID, -1); err == nil {
		t.Fatal("expected validation error for negative qty")
	}
}

func TestReserve(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, 5)
	productB := seedProduct(t, db, 1)

	requests := []ReservationRequest{
		{ProductID: productA, Qty: 3},
		{ProductID: productA, Qty: 4},
		{ProductID: productB, Qty: 1},
		{ProductID: uuid.New(), Qty: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := Reserve(ctx, tx, requests)
		if terr != nil {
			return terr
		}
		if len(results) != 4 {
			t.Fatalf("expected 4 results, got %d", len(results))
		}
		if !results[0].Reserved || results[0].Reason != "" {
			t.Fatalf("expected first reservation to succeed: %+v", results[0])
		}
		if results[1].Reserved || results[1].Reason != "insufficient stock" || results[1].Available != 2 {
			t.Fatalf("expected second reservation to fail on remaining stock: %+v", results[1])
		}
		if !results[2].Reserved {
			t.Fatalf("expected third reservation to succeed: %+v", results[2])
		}
		if results[3].Reserved || results[3].Reason != "product not found" {
			t.Fatalf("expected missing product reason: %+v", results[3])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	ledger := NewLedger(db)
	stockA, err := ledger.GetStock(ctx, productA)
	if err != nil {
		t.Fatalf("stock a: %v", err)
	}
	if stockA != 2 {
		t.Fatalf("unexpected stock a: %d", stockA)
	}
	stockB, err := ledger.GetStock(ctx, productB)
	if err != nil {
		t.Fatalf("stock b: %v", err)
	}
	if stockB != 0 {
		t.Fatalf("unexpected stock b: %d", stockB)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 5)

	_, err := Reserve(ctx, db, []ReservationRequest{{ProductID: productID, Qty: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}
