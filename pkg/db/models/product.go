package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/renelygems/storefront-backend/pkg/enums"
)

// Product represents a storefront catalog listing. Stock is the single
// authoritative on-hand count; every adjustment goes through the inventory
// ledger.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Description string              `gorm:"column:description;not null;default:''"`
	Category    string              `gorm:"column:category;not null;default:''"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice   *decimal.Decimal    `gorm:"column:sale_price;type:numeric(10,2)"`
	Images      pq.StringArray      `gorm:"column:images;type:text[]"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	RatingAvg   float64             `gorm:"column:rating_avg;type:numeric(3,2);not null;default:0"`
	RatingCount int                 `gorm:"column:rating_count;not null;default:0"`
	Featured    bool                `gorm:"column:featured;not null;default:false"`
	Status      enums.ProductStatus `gorm:"column:status;not null;default:'published'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice returns the sale price when set, the list price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
