package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/pagination"
)

// Repository encapsulates review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reviews repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the review. The unique index rejects a second review for the
// same user/product/order triple.
func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListByProduct pages reviews for a product, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Review]{}, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID)
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Review
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error; err != nil {
		return pagination.Page[models.Review]{}, err
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

	return pagination.Page[models.Review]{
		Items:      rows,
		NextCursor: nextCursor,
	}, nil
}

// RatingSummary aggregates the review stats for one product.
type RatingSummary struct {
	Average float64
	Count   int
}

// Summarize computes the live average and count for a product.
func (r *Repository) Summarize(ctx context.Context, productID uuid.UUID) (RatingSummary, error) {
	var row struct {
		Average float64
		Count   int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).
		Error
	if err != nil {
		return RatingSummary{}, err
	}
	return RatingSummary{Average: row.Average, Count: row.Count}, nil
}

// SyncProductRating writes the aggregate back onto the product row.
func (r *Repository) SyncProductRating(ctx context.Context, productID uuid.UUID, summary RatingSummary) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"rating_avg":   summary.Average,
			"rating_count": summary.Count,
		}).
		Error
}
