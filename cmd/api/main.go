package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/renelygems/storefront-backend/api/routes"
	"github.com/renelygems/storefront-backend/internal/cart"
	"github.com/renelygems/storefront-backend/internal/catalog"
	checkoutsvc "github.com/renelygems/storefront-backend/internal/checkout"
	"github.com/renelygems/storefront-backend/internal/inventory"
	"github.com/renelygems/storefront-backend/internal/orders"
	"github.com/renelygems/storefront-backend/internal/reviews"
	"github.com/renelygems/storefront-backend/internal/settings"
	"github.com/renelygems/storefront-backend/internal/wishlist"
	"github.com/renelygems/storefront-backend/pkg/config"
	"github.com/renelygems/storefront-backend/pkg/db"
	"github.com/renelygems/storefront-backend/pkg/logger"
	"github.com/renelygems/storefront-backend/pkg/metrics"
	"github.com/renelygems/storefront-backend/pkg/migrate"
	"github.com/renelygems/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	gormDB := dbClient.DB()

	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(catalogRepo)
	exitOnError(logg, "catalog service", err)

	settingsService, err := settings.NewService(settings.NewRepository(gormDB), logg)
	exitOnError(logg, "settings service", err)

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, catalogRepo, settingsService)
	exitOnError(logg, "cart service", err)

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(ordersRepo, dbClient, inventory.NewLedger(gormDB), logg)
	exitOnError(logg, "orders service", err)

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	checkoutService, err := checkoutsvc.NewService(dbClient, cartRepo, catalogRepo, ordersRepo, settingsService, checkoutMetrics, logg)
	exitOnError(logg, "checkout service", err)

	reviewsService, err := reviews.NewService(reviews.NewRepository(gormDB), ordersRepo, dbClient)
	exitOnError(logg, "reviews service", err)

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(gormDB), catalogRepo)
	exitOnError(logg, "wishlist service", err)

	handler := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		DBPinger:        dbClient,
		RedisPinger:     redisClient,
		IdempStore:      redisClient,
		HTTPMetrics:     metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		CatalogService:  catalogService,
		CartService:     cartService,
		CheckoutService: checkoutService,
		OrdersService:   ordersService,
		ReviewsService:  reviewsService,
		SettingsService: settingsService,
		WishlistService: wishlistService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := multierr.Combine(server.Shutdown(shutdownCtx), redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func exitOnError(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(context.Background(), "resource", resource), "failed to wire service", err)
	os.Exit(1)
}
