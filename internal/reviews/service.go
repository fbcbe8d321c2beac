package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renelygems/storefront-backend/internal/orders"
	"github.com/renelygems/storefront-backend/pkg/db"
	"github.com/renelygems/storefront-backend/pkg/db/models"
	pkgerrors "github.com/renelygems/storefront-backend/pkg/errors"
	"github.com/renelygems/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput carries the review payload.
type CreateInput struct {
	ProductID uuid.UUID
	Rating    int
	Comment   string
}

// Service gates review creation behind a delivered purchase.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error)
}

type service struct {
	repo       *Repository
	ordersRepo *orders.Repository
	tx         txRunner
}

// NewService builds the reviews service.
func NewService(repo *Repository, ordersRepo *orders.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, ordersRepo: ordersRepo, tx: tx}, nil
}

// Create verifies the buyer actually received the product, writes the review
// against the most recent unreviewed qualifying order, and refreshes the
// product's rating aggregate. With every qualifying purchase reviewed the
// gate reports not eligible; the unique index backstops concurrent creates.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Review, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	eligible, orderID, err := s.ordersRepo.HasQualifyingPurchase(ctx, userID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase history")
	}
	if !eligible {
		return nil, pkgerrors.New(pkgerrors.CodeNotEligible, "reviews require a delivered purchase").
			WithDetails(map[string]any{"product_id": input.ProductID.String()})
	}

	review := &models.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: input.ProductID,
		OrderID:   *orderID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		Verified:  true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeNotEligible, err, "review already exists for this purchase")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		summary, err := repo.Summarize(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize reviews")
		}
		if err := repo.SyncProductRating(ctx, input.ProductID, summary); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync product rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListByProduct pages the public reviews for a product.
func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error) {
	if productID == uuid.Nil {
		return pagination.Page[models.Review]{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	page, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pagination.Page[models.Review]{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pagination.Page[models.Review]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return page, nil
}
