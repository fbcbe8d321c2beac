package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/renelygems/storefront-backend/api/controllers"
	"github.com/renelygems/storefront-backend/api/middleware"
	"github.com/renelygems/storefront-backend/internal/cart"
	"github.com/renelygems/storefront-backend/internal/catalog"
	checkoutsvc "github.com/renelygems/storefront-backend/internal/checkout"
	"github.com/renelygems/storefront-backend/internal/orders"
	"github.com/renelygems/storefront-backend/internal/reviews"
	"github.com/renelygems/storefront-backend/internal/settings"
	"github.com/renelygems/storefront-backend/internal/wishlist"
	"github.com/renelygems/storefront-backend/pkg/config"
	"github.com/renelygems/storefront-backend/pkg/db"
	"github.com/renelygems/storefront-backend/pkg/logger"
	"github.com/renelygems/storefront-backend/pkg/metrics"
	"github.com/renelygems/storefront-backend/pkg/redis"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisPinger redis.Pinger
	IdempStore  redis.IdempotencyStore
	HTTPMetrics *metrics.HTTPMetrics

	CatalogService  catalog.Service
	CartService     cart.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service
	ReviewsService  reviews.Service
	SettingsService settings.Service
	WishlistService wishlist.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public storefront surface: catalog, reviews feed and pricing settings.
		r.Group(func(r chi.Router) {
			r.Get("/products", controllers.ProductList(deps.CatalogService, logg))
			r.Get("/products/{productID}", controllers.ProductDetail(deps.CatalogService, logg))
			r.Get("/products/{productID}/reviews", controllers.ProductReviews(deps.ReviewsService, logg))
			r.Get("/settings", controllers.SettingsFetch(deps.SettingsService, logg))
		})

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.IdempStore, cfg.Checkout.IdempotencyTTL, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.CartService, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
				r.Put("/items/{productID}", controllers.CartSetQuantity(deps.CartService, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.CartService, logg))
				r.Delete("/", controllers.CartClear(deps.CartService, logg))
			})

			r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(deps.OrdersService, logg))
				r.Get("/{orderID}", controllers.OrderDetail(deps.OrdersService, logg))
			})

			r.Post("/products/{productID}/reviews", controllers.ReviewCreate(deps.ReviewsService, logg))

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(deps.WishlistService, logg))
				r.Get("/ids", controllers.WishlistIDs(deps.WishlistService, logg))
				r.Post("/", controllers.WishlistAdd(deps.WishlistService, logg))
				r.Delete("/{productID}", controllers.WishlistRemove(deps.WishlistService, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminOrderList(deps.OrdersService, logg))
					r.Get("/{orderID}", controllers.AdminOrderDetail(deps.OrdersService, logg))
					r.Post("/{orderID}/status", controllers.AdminOrderSetStatus(deps.OrdersService, logg))
				})
				r.Put("/settings", controllers.AdminSettingsUpdate(deps.SettingsService, logg))
			})
		})
	})

	return r
}
