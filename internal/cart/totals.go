package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/renelygems/storefront-backend/internal/settings"
	"github.com/renelygems/storefront-backend/pkg/enums"
)

// Line is a priced cart line ready for totalling. UnitPrice is the snapshot
// taken when the line was added (sale price when one was active).
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the monetary summary for a cart or order.
type Totals struct {
	Currency    enums.Currency  `json:"currency"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeTotals derives totals from priced lines and the current settings.
// Shipping is waived for pickup, for empty carts, and once the subtotal
// reaches the free shipping threshold. Amounts are rounded to cents.
func ComputeTotals(lines []Line, cfg settings.Settings, pickup bool) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(cfg.TaxRate).Round(2)

	shipping := decimal.Zero
	if !pickup && subtotal.IsPositive() && subtotal.LessThan(cfg.FreeShippingThreshold) {
		shipping = cfg.ShippingFee.Round(2)
	}

	return Totals{
		Currency:    cfg.Currency,
		Subtotal:    subtotal,
		TaxAmount:   tax,
		ShippingFee: shipping,
		Total:       subtotal.Add(tax).Add(shipping).Round(2),
	}
}
