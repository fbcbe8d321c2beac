package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/enums"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
	"github.com/renelygems/storefront-backend/pkg/pagination"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// ItemView is a wishlist entry hydrated with its product summary.
type ItemView struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	SalePrice *decimal.Decimal `json:"salePrice,omitempty"`
	Image     string          `json:"image,omitempty"`
	InStock   bool            `json:"inStock"`
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ItemView], error)
	ListProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo        *Repository
	productRepo productLoader
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo *Repository, productRepo productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

// List returns the paginated wishlist with product summaries. Entries whose
// product has since been removed or unpublished are skipped.
func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ItemView], error) {
	if userID == uuid.Nil {
		return pagination.Page[ItemView]{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[ItemView]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}

	ids := make([]uuid.UUID, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, item.ProductID)
	}
	productsByID, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return pagination.Page[ItemView]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist products")
	}

	views := make([]ItemView, 0, len(page.Items))
	for _, item := range page.Items {
		product, ok := productsByID[item.ProductID]
		if !ok || product.Status != enums.ProductStatusPublished {
			continue
		}
		view := ItemView{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			SalePrice: product.SalePrice,
			InStock:   product.Stock > 0,
		}
		if len(product.Images) > 0 {
			view.Image = product.Images[0]
		}
		views = append(views, view)
	}

	return pagination.Page[ItemView]{
		Items:      views,
		NextCursor: page.NextCursor,
	}, nil
}

// ListProductIDs returns every saved product ID for the user.
func (s *service) ListProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ids, err := s.repo.ListProductIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist ids")
	}
	return ids, nil
}

// AddItem ensures the product is live and saves it. Re-adding is a no-op.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status != enums.ProductStatusPublished {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if err := s.repo.AddItem(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist item")
	}
	return nil
}

// RemoveItem drops the entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}
