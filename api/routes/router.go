package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voltaria/voltaria-backend/api/controllers"
	"github.com/voltaria/voltaria-backend/api/middleware"
	"github.com/voltaria/voltaria-backend/internal/activity"
	authsvc "github.com/voltaria/voltaria-backend/internal/auth"
	"github.com/voltaria/voltaria-backend/internal/catalog"
	"github.com/voltaria/voltaria-backend/internal/inventory"
	"github.com/voltaria/voltaria-backend/internal/orders"
	"github.com/voltaria/voltaria-backend/internal/quotes"
	"github.com/voltaria/voltaria-backend/internal/retailers"
	"github.com/voltaria/voltaria-backend/internal/warranties"
	"github.com/voltaria/voltaria-backend/pkg/config"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/redis"
)

// Services groups the domain services the router wires to controllers.
type Services struct {
	Auth      authsvc.Service
	Inventory inventory.Service
	Catalog   catalog.Service
	Warranty  warranties.Service
	Orders    orders.Service
	Quotes    quotes.Service
	Retailers retailers.Service
	Activity  activity.Service
}

// Pinger is the readiness probe surface of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPing Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPing, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/auth/login", controllers.Login(svcs.Auth, logg))

		// Public serial lookup for the warranty portal.
		r.Get("/warranties/validate", controllers.WarrantyValidate(svcs.Warranty, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole("admin", logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/product-units", func(r chi.Router) {
				r.Post("/add", controllers.UnitsAdd(svcs.Inventory, svcs.Activity, logg))
				r.Get("/export", controllers.UnitsExport(svcs.Inventory, svcs.Activity, logg))
				r.Get("/product/{productId}", controllers.UnitsByProduct(svcs.Inventory, logg))
				r.Get("/serial/{serialNumber}", controllers.UnitBySerial(svcs.Inventory, logg))
				r.Put("/{unitId}", controllers.UnitUpdate(svcs.Inventory, svcs.Activity, logg))
				r.Delete("/{unitId}", controllers.UnitDelete(svcs.Inventory, svcs.Activity, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.ProductCreate(svcs.Catalog, svcs.Activity, logg))
				r.Get("/", controllers.ProductList(svcs.Catalog, logg))
				r.Get("/{id}", controllers.ProductGet(svcs.Catalog, logg))
				r.Put("/{id}", controllers.ProductUpdate(svcs.Catalog, svcs.Activity, logg))
				r.Delete("/{id}", controllers.ProductDelete(svcs.Catalog, svcs.Activity, logg))
				r.Post("/{id}/resync-stock", controllers.ProductResyncStock(svcs.Catalog, svcs.Activity, logg))
			})

			r.Route("/warranties", func(r chi.Router) {
				r.Post("/", controllers.WarrantyRegister(svcs.Warranty, svcs.Activity, logg))
				r.Get("/", controllers.WarrantyList(svcs.Warranty, logg))
				r.Get("/counts", controllers.WarrantyCounts(svcs.Warranty, logg))
				r.Get("/{id}", controllers.WarrantyGet(svcs.Warranty, logg))
				r.Put("/{id}", controllers.WarrantyDecision(svcs.Warranty, svcs.Activity, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(svcs.Orders, svcs.Activity, logg))
				r.Get("/", controllers.OrderList(svcs.Orders, logg))
				r.Get("/{id}", controllers.OrderGet(svcs.Orders, logg))
				r.Put("/{id}/status", controllers.OrderSetStatus(svcs.Orders, svcs.Activity, logg))
				r.Post("/{id}/allocate", controllers.OrderAllocate(svcs.Orders, svcs.Activity, logg))
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Post("/", controllers.QuoteCreate(svcs.Quotes, svcs.Activity, logg))
				r.Get("/", controllers.QuoteList(svcs.Quotes, logg))
				r.Get("/{id}", controllers.QuoteGet(svcs.Quotes, logg))
				r.Put("/{id}/status", controllers.QuoteSetStatus(svcs.Quotes, svcs.Activity, logg))
			})

			r.Route("/retailers", func(r chi.Router) {
				r.Post("/", controllers.RetailerCreate(svcs.Retailers, svcs.Activity, logg))
				r.Get("/", controllers.RetailerList(svcs.Retailers, logg))
				r.Get("/{id}", controllers.RetailerGet(svcs.Retailers, logg))
				r.Put("/{id}", controllers.RetailerUpdate(svcs.Retailers, svcs.Activity, logg))
			})

			r.Route("/activity", func(r chi.Router) {
				r.Get("/", controllers.ActivityList(svcs.Activity, logg))
				r.Get("/export", controllers.ActivityExport(svcs.Activity, logg))
			})
		})
	})

	return r
}
