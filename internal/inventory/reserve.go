package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
)

// ReservationRequest asks for qty units of one product.
type ReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// ReservationResult reports the per-product outcome of a reservation pass.
type ReservationResult struct {
	ProductID uuid.UUID
	Qty       int
	Reserved  bool
	Reason    string
	Available int
}

// Reserve decrements stock for each request inside the caller's transaction.
// Each decrement is guarded: a product with fewer units than requested is
// reported as not reserved and its stock is left untouched. The caller decides
// whether a failed line aborts the transaction.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction is required")
	}

	results := make([]ReservationResult, 0, len(requests))
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}

		update := tx.WithContext(ctx).Exec(
			`UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock >= ?`,
			req.Qty, req.ProductID, req.Qty,
		)
		if update.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, update.Error, "reserve stock")
		}

		result := ReservationResult{ProductID: req.ProductID, Qty: req.Qty}
		if update.RowsAffected > 0 {
			result.Reserved = true
			results = append(results, result)
			continue
		}

		var available int
		probe := tx.WithContext(ctx).
			Raw(`SELECT stock FROM products WHERE id = ?`, req.ProductID).
			Scan(&available)
		if probe.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, probe.Error, "probe stock")
		}
		if probe.RowsAffected == 0 {
			result.Reason = "product not found"
		} else {
			result.Reason = "insufficient stock"
			result.Available = available
		}
		results = append(results, result)
	}

	return results, nil
}
