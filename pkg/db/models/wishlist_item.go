package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem marks a product a buyer saved for later.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_wishlist_items_user_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_wishlist_items_user_product"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
