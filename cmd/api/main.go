package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/voltaria/voltaria-backend/api/routes"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/internal/auth"
	"github.com/voltaria/voltaria-backend/internal/catalog"
	"github.com/voltaria/voltaria-backend/internal/certificates"
	"github.com/voltaria/voltaria-backend/internal/inventory"
	"github.com/voltaria/voltaria-backend/internal/orders"
	"github.com/voltaria/voltaria-backend/internal/quotes"
	"github.com/voltaria/voltaria-backend/internal/retailers"
	"github.com/voltaria/voltaria-backend/internal/warranties"
	"github.com/voltaria/voltaria-backend/pkg/config"
	"github.com/voltaria/voltaria-backend/pkg/db"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/migrate"
	"github.com/voltaria/voltaria-backend/pkg/outbox"
	"github.com/voltaria/voltaria-backend/pkg/redis"
	"github.com/voltaria/voltaria-backend/pkg/storage/gcs"
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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, gcsClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, gcsClient *gcs.Client) (routes.Services, error) {
	conn := dbClient.DB()

	unitRepo := inventory.NewRepository(conn)
	productRepo := catalog.NewRepository(conn)
	warrantyRepo := warranties.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	quoteRepo := quotes.NewRepository(conn)
	retailerRepo := retailers.NewRepository(conn)
	activityRepo := activity.NewRepository(conn)

	events := outbox.NewService(outbox.NewRepository(conn), logg)

	aggregator, err := inventory.NewAggregator(unitRepo, dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	certGenerator, err := certificates.NewGenerator(gcsClient, cfg.GCS, logg)
	if err != nil {
		return routes.Services{}, err
	}

	authService, err := auth.NewService(retailerRepo, cfg.JWT, logg)
	if err != nil {
		return routes.Services{}, err
	}
	inventoryService, err := inventory.NewService(unitRepo, dbClient, productRepo, aggregator, logg)
	if err != nil {
		return routes.Services{}, err
	}
	catalogService, err := catalog.NewService(productRepo, dbClient, aggregator, events, logg)
	if err != nil {
		return routes.Services{}, err
	}
	warrantyService, err := warranties.NewService(warrantyRepo, unitRepo, productRepo, dbClient, events, certGenerator, logg)
	if err != nil {
		return routes.Services{}, err
	}
	orderService, err := orders.NewService(orderRepo, unitRepo, aggregator, productRepo, dbClient, events, logg)
	if err != nil {
		return routes.Services{}, err
	}
	quoteService, err := quotes.NewService(quoteRepo, productRepo, dbClient, events, logg)
	if err != nil {
		return routes.Services{}, err
	}
	retailerService, err := retailers.NewService(retailerRepo, cfg.Password, logg)
	if err != nil {
		return routes.Services{}, err
	}
	activityService, err := activity.NewService(activityRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:      authService,
		Inventory: inventoryService,
		Catalog:   catalogService,
		Warranty:  warrantyService,
		Orders:    orderService,
		Quotes:    quoteService,
		Retailers: retailerService,
		Activity:  activityService,
	}, nil
}
