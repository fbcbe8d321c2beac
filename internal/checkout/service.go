package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/internal/cart"
	"github.com/renelygems/storefront-backend/internal/catalog"
	"github.com/renelygems/storefront-backend/internal/inventory"
	"github.com/renelygems/storefront-backend/internal/orders"
	"github.com/renelygems/storefront-backend/internal/settings"
	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/enums"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
	"github.com/renelygems/storefront-backend/pkg/logger"
	"github.com/renelygems/storefront-backend/pkg/metrics"
	"github.com/renelygems/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input captures the checkout payload.
type Input struct {
	PaymentMethod enums.PaymentMethod
	DeliveryType  enums.DeliveryType
	ShippingInfo  types.ShippingInfo
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

type service struct {
	tx          txRunner
	cartRepo    *cart.Repository
	catalogRepo *catalog.Repository
	ordersRepo  *orders.Repository
	settings    settings.Provider
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
}

// NewService builds the checkout service. Metrics may be nil.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	catalogRepo *catalog.Repository,
	ordersRepo *orders.Repository,
	settingsProvider settings.Provider,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if settingsProvider == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		ordersRepo:  ordersRepo,
		settings:    settingsProvider,
		metrics:     checkoutMetrics,
		logg:        logg,
	}, nil
}

// Execute turns the user's cart into an order in one transaction: reserve
// stock line by line, create the order from the cart's price snapshots,
// clear the cart. Any failure rolls the whole thing back.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if err := s.validateInput(userID, input); err != nil {
		s.metrics.IncFailure("validation")
		return nil, err
	}

	cfg := s.settings.Current(ctx)

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		catalogRepo := s.catalogRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		rows, err := cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ProductID)
		}
		products, err := catalogRepo.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
		}

		requests := make([]inventory.ReservationRequest, 0, len(rows))
		lines := make([]cart.Line, 0, len(rows))
		for _, row := range rows {
			product, ok := products[row.ProductID]
			if !ok || product.Status != enums.ProductStatusPublished {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available").
					WithDetails(map[string]any{"product_id": row.ProductID.String()})
			}
			requests = append(requests, inventory.ReservationRequest{
				ProductID: row.ProductID,
				Qty:       row.Quantity,
			})
			lines = append(lines, cart.Line{
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: row.UnitPrice,
				Quantity:  row.Quantity,
			})
		}

		results, err := inventory.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}
		var shortages []map[string]any
		for _, result := range results {
			if result.Reserved {
				continue
			}
			shortages = append(shortages, map[string]any{
				"product_id": result.ProductID.String(),
				"requested":  result.Qty,
				"available":  result.Available,
				"reason":     result.Reason,
			})
		}
		if len(shortages) > 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{"lines": shortages})
		}

		pickup := input.DeliveryType == enums.DeliveryTypePickup
		totals := cart.ComputeTotals(lines, cfg, pickup)

		order = &models.Order{
			ID:            uuid.New(),
			UserID:        userID,
			Status:        enums.OrderStatusPending,
			PaymentMethod: input.PaymentMethod,
			DeliveryType:  input.DeliveryType,
			ShippingInfo:  input.ShippingInfo,
			Currency:      totals.Currency,
			Subtotal:      totals.Subtotal,
			TaxAmount:     totals.TaxAmount,
			ShippingFee:   totals.ShippingFee,
			Total:         totals.Total,
		}
		for _, line := range lines {
			order.Items = append(order.Items, models.OrderItem{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   line.ProductID,
				ProductName: line.Name,
				UnitPrice:   line.UnitPrice,
				Quantity:    line.Quantity,
				LineTotal:   line.LineTotal(),
			})
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := cartRepo.Clear(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	s.metrics.IncSuccess(input.PaymentMethod.String())
	ctx = s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID.String())
	s.logg.Info(ctx, "checkout completed")
	return order, nil
}

func (s *service) validateInput(userID uuid.UUID, input Input) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.DeliveryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type")
	}
	if input.DeliveryType == enums.DeliveryTypeHome {
		if strings.TrimSpace(input.ShippingInfo.FullName) == "" ||
			strings.TrimSpace(input.ShippingInfo.Phone) == "" ||
			strings.TrimSpace(input.ShippingInfo.Address) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "home delivery requires name, phone and address")
		}
	}
	return nil
}

func (s *service) recordFailure(err error) {
	reason := "internal"
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeInsufficientStock:
			reason = "insufficient_stock"
		case pkgerrors.CodeValidation:
			reason = "validation"
		case pkgerrors.CodeNotFound:
			reason = "product_missing"
		default:
			reason = strings.ToLower(string(typed.Code()))
		}
	}
	s.metrics.IncFailure(reason)
}
