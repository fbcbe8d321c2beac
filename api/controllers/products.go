package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/renelygems/storefront-backend/api/responses"
	"github.com/renelygems/storefront-backend/api/validators"
	"github.com/renelygems/storefront-backend/internal/catalog"
	"github.com/renelygems/storefront-backend/internal/reviews"
	"github.com/renelygems/storefront-backend/pkg/db/models"
	"github.com/renelygems/storefront-backend/pkg/logger"
)

// ProductList serves the public storefront catalog.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		featured, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := catalog.ListFilters{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Featured: featured,
			Query:    strings.TrimSpace(r.URL.Query().Get("q")),
		}

		page, err := svc.ListProducts(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(page.Items))
		for _, product := range page.Items {
			items = append(items, newProductResponse(product))
		}

		responses.WriteSuccess(w, productListResponse{
			Items:      items,
			NextCursor: page.NextCursor,
		})
	}
}

// ProductDetail serves a single published product.
func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// ProductReviews serves the public review feed for a product.
func ProductReviews(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByProduct(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]reviewResponse, 0, len(page.Items))
		for _, review := range page.Items {
			items = append(items, newReviewResponse(review))
		}

		responses.WriteSuccess(w, reviewListResponse{
			Items:      items,
			NextCursor: page.NextCursor,
		})
	}
}

type productListResponse struct {
	Items      []productResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type productResponse struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Category       string           `json:"category,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Images         []string         `json:"images,omitempty"`
	InStock        bool             `json:"in_stock"`
	RatingAvg      float64          `json:"rating_avg"`
	RatingCount    int              `json:"rating_count"`
	Featured       bool             `json:"featured"`
	CreatedAt      time.Time        `json:"created_at"`
}

func newProductResponse(product models.Product) productResponse {
	return productResponse{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		Category:       product.Category,
		Price:          product.Price,
		SalePrice:      product.SalePrice,
		EffectivePrice: product.EffectivePrice(),
		Images:         product.Images,
		InStock:        product.Stock > 0,
		RatingAvg:      product.RatingAvg,
		RatingCount:    product.RatingCount,
		Featured:       product.Featured,
		CreatedAt:      product.CreatedAt,
	}
}

type reviewListResponse struct {
	Items      []reviewResponse `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type reviewResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func newReviewResponse(review models.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		ProductID: review.ProductID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Verified:  review.Verified,
		CreatedAt: review.CreatedAt,
	}
}
