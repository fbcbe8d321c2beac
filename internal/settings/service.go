package settings

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/renelygems/storefront-backend/pkg/enums"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
	"github.com/renelygems/storefront-backend/pkg/logger"
)

// Settings keys as stored in the settings table.
const (
	KeyCurrency              = "currency"
	KeyTaxRate               = "tax_rate"
	KeyShippingFee           = "shipping_fee"
	KeyFreeShippingThreshold = "free_shipping_threshold"
)

// Settings holds the pricing configuration every cart and checkout uses.
type Settings struct {
	Currency              enums.Currency  `json:"currency"`
	TaxRate               decimal.Decimal `json:"tax_rate"`
	ShippingFee           decimal.Decimal `json:"shipping_fee"`
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
}

// Defaults returns the built-in configuration used when rows are missing or
// unreadable. Pricing must keep working even with an empty settings table.
func Defaults() Settings {
	return Settings{
		Currency:              enums.CurrencyUSD,
		TaxRate:               decimal.RequireFromString("0.13"),
		ShippingFee:           decimal.RequireFromString("3.50"),
		FreeShippingThreshold: decimal.RequireFromString("25.00"),
	}
}

// Provider yields the current settings snapshot. Consumers (cart totals,
// checkout) depend on this surface instead of the concrete service.
type Provider interface {
	Current(ctx context.Context) Settings
}

// UpdateInput carries admin changes; nil fields are left untouched.
type UpdateInput struct {
	Currency              *enums.Currency  `json:"currency"`
	TaxRate               *decimal.Decimal `json:"tax_rate"`
	ShippingFee           *decimal.Decimal `json:"shipping_fee"`
	FreeShippingThreshold *decimal.Decimal `json:"free_shipping_threshold"`
}

// Service exposes settings reads and admin updates.
type Service interface {
	Provider
	Update(ctx context.Context, input UpdateInput) (Settings, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds the settings service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settings repo is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Current reads the settings rows and falls back to defaults per key. A failed
// read degrades to defaults rather than blocking pricing.
func (s *service) Current(ctx context.Context) Settings {
	result := Defaults()

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logg.Warn(ctx, "settings read failed, using defaults")
		return result
	}

	for _, row := range rows {
		switch row.Key {
		case KeyCurrency:
			var raw string
			if err := json.Unmarshal([]byte(row.Value), &raw); err != nil {
				s.warnBadValue(ctx, row.Key)
				continue
			}
			currency, err := enums.ParseCurrency(raw)
			if err != nil {
				s.warnBadValue(ctx, row.Key)
				continue
			}
			result.Currency = currency
		case KeyTaxRate:
			if v, ok := s.decimalValue(ctx, row.Key, row.Value); ok {
				result.TaxRate = v
			}
		case KeyShippingFee:
			if v, ok := s.decimalValue(ctx, row.Key, row.Value); ok {
				result.ShippingFee = v
			}
		case KeyFreeShippingThreshold:
			if v, ok := s.decimalValue(ctx, row.Key, row.Value); ok {
				result.FreeShippingThreshold = v
			}
		}
	}

	return result
}

// Update persists the provided fields and returns the resulting snapshot.
func (s *service) Update(ctx context.Context, input UpdateInput) (Settings, error) {
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		if err := s.upsertJSON(ctx, KeyCurrency, input.Currency.String()); err != nil {
			return Settings{}, err
		}
	}
	if input.TaxRate != nil {
		if input.TaxRate.IsNegative() || input.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be at least 0 and below 1")
		}
		if err := s.upsertDecimal(ctx, KeyTaxRate, *input.TaxRate); err != nil {
			return Settings{}, err
		}
	}
	if input.ShippingFee != nil {
		if input.ShippingFee.IsNegative() {
			return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping fee cannot be negative")
		}
		if err := s.upsertDecimal(ctx, KeyShippingFee, *input.ShippingFee); err != nil {
			return Settings{}, err
		}
	}
	if input.FreeShippingThreshold != nil {
		if input.FreeShippingThreshold.IsNegative() {
			return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, "free shipping threshold cannot be negative")
		}
		if err := s.upsertDecimal(ctx, KeyFreeShippingThreshold, *input.FreeShippingThreshold); err != nil {
			return Settings{}, err
		}
	}

	return s.Current(ctx), nil
}

func (s *service) upsertJSON(ctx context.Context, key, value string) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode setting")
	}
	if err := s.repo.Upsert(ctx, key, string(buf)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist setting")
	}
	return nil
}

func (s *service) upsertDecimal(ctx context.Context, key string, value decimal.Decimal) error {
	if err := s.repo.Upsert(ctx, key, value.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist setting")
	}
	return nil
}

func (s *service) decimalValue(ctx context.Context, key, raw string) (decimal.Decimal, bool) {
	value, err := decimal.NewFromString(strings.Trim(strings.TrimSpace(raw), `"`))
	if err != nil {
		s.warnBadValue(ctx, key)
		return decimal.Decimal{}, false
	}
	return value, true
}

func (s *service) warnBadValue(ctx context.Context, key string) {
	s.logg.Warn(s.logg.WithField(ctx, "setting_key", key), "unparsable setting value, using default")
}
