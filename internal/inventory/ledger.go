package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/pkg/db/models"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
)

// Ledger performs atomic stock adjustments against the products table. The
// stock column is the single source of truth; no adjustment goes around it.
type Ledger struct {
	db *gorm.DB
}

// NewLedger constructs a ledger bound to the provided gorm DB.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the supplied transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// GetStock returns the current on-hand count for a product.
func (l *Ledger) GetStock(ctx context.Context, productID uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var stock int
	err := l.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("stock").
		Where("id = ?", productID).
		Take(&stock).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	return stock, nil
}

// Increment adds qty units back to stock. Used when a shipped-or-earlier order
// is cancelled.
func (l *Ledger) Increment(ctx context.Context, productID uuid.UUID, qty int) error {
	if err := validateAdjustment(productID, qty); err != nil {
		return err
	}

	result := l.db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		qty, productID,
	)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "increment stock")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// Decrement subtracts qty units, clamping at zero. The clamp mirrors the order
// reinstate path: bringing a cancelled order back never re-validates stock, it
// just burns whatever is left.
func (l *Ledger) Decrement(ctx context.Context, productID uuid.UUID, qty int) (int, error) {
	if err := validateAdjustment(productID, qty); err != nil {
		return 0, err
	}

	result := l.db.WithContext(ctx).Exec(
		`UPDATE products SET stock = CASE WHEN stock - ? < 0 THEN 0 ELSE stock - ? END, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		qty, qty, productID,
	)
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "decrement stock")
	}
	if result.RowsAffected == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	return l.GetStock(ctx, productID)
}

func validateAdjustment(productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
