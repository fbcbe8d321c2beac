package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/internal/inventory"
	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/enums"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
	"github.com/renelygems/storefront-backend/pkg/logger"
	"github.com/renelygems/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order reads and the status machine.
type Service interface {
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	GetAnyOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error)
	ListAllOrders(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[models.Order], error)
	SetStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	ledger *inventory.Ledger
	logg   *logger.Logger
}

// NewService builds the orders service.
func NewService(repo *Repository, tx txRunner, ledger *inventory.Ledger, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, ledger: ledger, logg: logg}, nil
}

// GetOrder loads an order owned by the user.
func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetAnyOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// GetAnyOrder loads an order without an ownership check. Admin surface only.
func (s *service) GetAnyOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// ListOrders pages a buyer's own orders.
func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	if userID == uuid.Nil {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

// ListAllOrders pages every order for the admin surface.
func (s *service) ListAllOrders(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[models.Order], error) {
	if status != nil && !status.IsValid() {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	page, err := s.repo.ListAll(ctx, status, params)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

// SetStatus moves the order to next and settles stock across the cancelled
// boundary: entering cancelled returns every item's units to stock, leaving
// cancelled burns them again (clamped at zero, without re-validating
// availability). The guarded status update serializes concurrent transitions
// on the same order.
func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		prev := order.Status
		if prev == next {
			updated = order
			return nil
		}

		touched, err := repo.UpdateStatusCAS(ctx, orderID, prev, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if touched == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		switch {
		case next == enums.OrderStatusCancelled:
			for _, item := range order.Items {
				if err := ledger.Increment(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case prev == enums.OrderStatusCancelled:
			for _, item := range order.Items {
				if _, err := ledger.Decrement(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		order.Status = next
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order status updated")
	return updated, nil
}
