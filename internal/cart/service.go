package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/internal/settings"
	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/enums"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// LineView is one cart line joined with its current catalog state.
type LineView struct {
	Line
	Image string `json:"image,omitempty"`
	Stock int    `json:"stock"`
}

// View is the cart as the storefront renders it: priced lines plus totals
// computed against the live settings.
type View struct {
	Items  []LineView `json:"items"`
	Totals Totals     `json:"totals"`
}

// Service exposes cart business rules.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (View, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (View, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo        *Repository
	productRepo productLoader
	settings    settings.Provider
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, productRepo productLoader, settingsProvider settings.Provider) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if settingsProvider == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	return &service{
		repo:        repo,
		productRepo: productRepo,
		settings:    settingsProvider,
	}, nil
}

// Get assembles the priced cart view for a user.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (View, error) {
	if userID == uuid.Nil {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.buildView(ctx, userID)
}

// AddItem validates the product and adds qty units to the user's cart,
// merging into an existing line for the same product. The resulting line
// quantity may not exceed the product's current stock. The unit price is
// frozen when the line is first created.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (View, error) {
	if userID == uuid.Nil {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if qty <= 0 {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	product, err := s.loadSellableProduct(ctx, productID)
	if err != nil {
		return View{}, err
	}

	existing, err := s.lineQuantity(ctx, userID, productID)
	if err != nil {
		return View{}, err
	}
	if existing+qty > product.Stock {
		return View{}, insufficientStock(productID, existing+qty, product.Stock)
	}

	if err := s.repo.AddQuantity(ctx, userID, productID, qty, product.EffectivePrice()); err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart line")
	}
	return s.buildView(ctx, userID)
}

// SetQuantity overwrites the quantity of an existing line. Zero removes the
// line, matching what every storefront quantity stepper expects.
func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (View, error) {
	if userID == uuid.Nil {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if qty < 0 {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	product, err := s.loadSellableProduct(ctx, productID)
	if err != nil {
		return View{}, err
	}
	if qty > product.Stock {
		return View{}, insufficientStock(productID, qty, product.Stock)
	}

	touched, err := s.repo.SetQuantity(ctx, userID, productID, qty)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	if touched == 0 {
		return View{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return s.buildView(ctx, userID)
}

// RemoveItem drops the line regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (View, error) {
	if userID == uuid.Nil {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.RemoveLine(ctx, userID, productID); err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return s.buildView(ctx, userID)
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// lineQuantity returns the quantity already in the cart for this product,
// zero when no line exists.
func (s *service) lineQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	line, err := s.repo.FindLine(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return line.Quantity, nil
}

func insufficientStock(productID uuid.UUID, requested, available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"requested":  requested,
			"available":  available,
		})
}

func (s *service) loadSellableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status != enums.ProductStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// buildView joins cart rows with live catalog data. Lines whose product has
// vanished or been unpublished are skipped rather than failing the whole cart.
func (s *service) buildView(ctx context.Context, userID uuid.UUID) (View, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	items := make([]LineView, 0, len(rows))
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		product, ok := products[row.ProductID]
		if !ok || product.Status != enums.ProductStatusPublished {
			continue
		}
		line := Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: row.UnitPrice,
			Quantity:  row.Quantity,
		}
		view := LineView{Line: line, Stock: product.Stock}
		if len(product.Images) > 0 {
			view.Image = product.Images[0]
		}
		items = append(items, view)
		lines = append(lines, line)
	}

	return View{
		Items:  items,
		Totals: ComputeTotals(lines, s.settings.Current(ctx), false),
	}, nil
}
