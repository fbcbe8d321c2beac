package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/renelygems/storefront-backend/pkg/enums"
	"github.com/renelygems/storefront-backend/pkg/types"
)

// Order is the immutable record produced by checkout. Monetary fields are
// snapshots; catalog price changes never touch a placed order.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	DeliveryType  enums.DeliveryType  `gorm:"column:delivery_type;not null"`
	ShippingInfo  types.ShippingInfo  `gorm:"column:shipping_info;type:jsonb"`
	Currency      enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	TaxAmount     decimal.Decimal     `gorm:"column:tax_amount;type:numeric(10,2);not null"`
	ShippingFee   decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(10,2);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
