package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/enums"
	"github.com/renelygems/storefront-backend/pkg/pagination"
)

// Repository encapsulates order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists the order together with its item snapshots.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads the order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusCAS flips status from prev to next in one guarded statement.
// Zero rows means another writer got there first (or the order is gone).
func (r *Repository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, prev, next enums.OrderStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, prev).
		Update("status", next)
	return result.RowsAffected, result.Error
}

// ListByUser pages a buyer's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	return r.list(ctx, params, func(query *gorm.DB) *gorm.DB {
		return query.Where("user_id = ?", userID)
	})
}

// ListAll pages every order for the admin surface, optionally by status.
func (r *Repository) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[models.Order], error) {
	return r.list(ctx, params, func(query *gorm.DB) *gorm.DB {
		if status != nil {
			return query.Where("status = ?", *status)
		}
		return query
	})
}

func (r *Repository) list(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) (pagination.Page[models.Order], error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}

	query := scope(r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items"))
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Order
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error; err != nil {
		return pagination.Page[models.Order]{}, err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return pagination.Page[models.Order]{
		Items:      rows,
		NextCursor: nextCursor,
	}, nil
}

// HasQualifyingPurchase reports whether the user has an order containing the
// product whose status counts as a delivered purchase. Orders the user has
// already reviewed for this product are skipped, so each purchase supports at
// most one review.
func (r *Repository) HasQualifyingPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, *uuid.UUID, error) {
	var orderID uuid.UUID
	result := r.db.WithContext(ctx).
		Table("orders o").
		Select("o.id").
		Joins("JOIN order_items oi ON oi.order_id = o.id").
		Where("o.user_id = ? AND oi.product_id = ? AND o.status IN ?", userID, productID, []string{
			enums.OrderStatusCompleted.String(),
			enums.OrderStatusShipped.String(),
		}).
		Where("NOT EXISTS (SELECT 1 FROM reviews rv WHERE rv.order_id = o.id AND rv.user_id = ? AND rv.product_id = ?)", userID, productID).
		Order("o.created_at DESC").
		Limit(1).
		Scan(&orderID)
	if result.Error != nil {
		return false, nil, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil, nil
	}
	return true, &orderID, nil
}
