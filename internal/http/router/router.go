package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ithalat-ops/backoffice-api/internal/auth"
	"github.com/ithalat-ops/backoffice-api/internal/config"
	"github.com/ithalat-ops/backoffice-api/internal/database"
	"github.com/ithalat-ops/backoffice-api/internal/http/handler"
	"github.com/ithalat-ops/backoffice-api/internal/http/middleware"
	"github.com/ithalat-ops/backoffice-api/internal/netsis"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/ithalat-ops/backoffice-api/docs" // registers swagger docs
)

const readinessTimeout = 5 * time.Second

// NetsisHealth reports the ERP connection state for readiness probes
type NetsisHealth interface {
	HealthCheck(ctx context.Context) *netsis.HealthStatus
}

// Pinger is satisfied by the Redis figures cache
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Supplier *handler.SupplierHandler
	Gtip     *handler.GtipHandler
	Rfq      *handler.RfqHandler
	Order    *handler.OrderHandler
	Shipment *handler.ShipmentHandler
	Packing  *handler.PackingHandler
	Netsis   *handler.NetsisHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	netsis         NetsisHealth
	cache          Pinger
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	h              Handlers
}

// NewRouter wires the handlers. netsisHealth and cache may be nil when those backends are disabled.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	netsisHealth NetsisHealth,
	cache Pinger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		netsis:         netsisHealth,
		cache:          cache,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		h:              handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(middleware.CaptureCaller)
		r.Use(rt.rateLimiter.Limit)

		r.Get("/auth/me", rt.h.Auth.Me)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireModule(auth.ModuleCatalog))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.h.Product.List)
				r.Post("/", rt.h.Product.Create)
				r.With(rt.rateLimiter.LimitImports).Post("/import", rt.h.Product.Import)
				r.Get("/{id}", rt.h.Product.GetByID)
				r.Put("/{id}", rt.h.Product.Update)
				r.Delete("/{id}", rt.h.Product.Delete)
			})

			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", rt.h.Supplier.List)
				r.Post("/", rt.h.Supplier.Create)
				r.Get("/{id}", rt.h.Supplier.GetByID)
				r.Put("/{id}", rt.h.Supplier.Update)
				r.Delete("/{id}", rt.h.Supplier.Delete)
			})

			r.Route("/gtips", func(r chi.Router) {
				r.Get("/", rt.h.Gtip.List)
				r.Post("/", rt.h.Gtip.Create)
				r.Get("/{id}", rt.h.Gtip.GetByID)
				r.Put("/{id}", rt.h.Gtip.Update)
				r.Delete("/{id}", rt.h.Gtip.Delete)
				r.Get("/{id}/costs", rt.h.Gtip.Costs)
				r.Put("/{id}/country-rates", rt.h.Gtip.UpsertCountryRate)
				r.Delete("/{id}/country-rates/{country}", rt.h.Gtip.DeleteCountryRate)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireModule(auth.ModuleRfq))

			r.Route("/rfqs", func(r chi.Router) {
				r.Get("/", rt.h.Rfq.List)
				r.Post("/", rt.h.Rfq.Create)
				r.Get("/{id}", rt.h.Rfq.GetByID)
				r.Delete("/{id}", rt.h.Rfq.Delete)
				r.Put("/{id}/status", rt.h.Rfq.UpdateStatus)
				r.With(rt.rateLimiter.LimitImports).Post("/{id}/import", rt.h.Rfq.Import)
				r.Get("/{id}/comparison", rt.h.Rfq.Comparison)
				r.Post("/{id}/convert", rt.h.Rfq.Convert)
			})
			r.Get("/rfq/export", rt.h.Rfq.Export)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireModule(auth.ModuleOrders))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", rt.h.Order.List)
				r.Post("/", rt.h.Order.Create)
				r.Get("/{id}", rt.h.Order.GetByID)
				r.Post("/{id}/items", rt.h.Order.AddItem)
				r.Put("/{id}/items/{itemId}", rt.h.Order.UpdateItem)
				r.Delete("/{id}/items/{itemId}", rt.h.Order.RemoveItem)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireModule(auth.ModuleShipments))

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", rt.h.Shipment.List)
				r.Post("/", rt.h.Shipment.Create)
				r.Get("/{id}", rt.h.Shipment.GetByID)
				r.Post("/{id}/quotes", rt.h.Shipment.AddQuote)
				r.Post("/{id}/quotes/{quoteId}/select", rt.h.Shipment.SelectQuote)
			})
		})

		r.With(rt.authMiddleware.RequireModule(auth.ModulePacking), rt.rateLimiter.LimitImports).
			Post("/packing-lists/parse", rt.h.Packing.Parse)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireModule(auth.ModuleDiscrepancy))

			r.Get("/discrepancy-runs", rt.h.Packing.ListRuns)
			r.Post("/discrepancy-runs", rt.h.Packing.CreateRun)
			r.Get("/discrepancy-runs/{id}", rt.h.Packing.GetRun)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireModule(auth.ModuleNetsis))

			r.Post("/mssql-name-sync", rt.h.Netsis.NameSync)
			r.Get("/netsis/figures", rt.h.Netsis.Figures)
		})
	})

	return r
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
	if err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// readiness fails only on the database. Netsis and Redis are reported but degrade softly.
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]interface{})
	healthy := true

	if err := database.HealthCheck(ctx, rt.db); err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if rt.netsis != nil {
		checks["netsis"] = rt.netsis.HealthCheck(ctx)
	} else {
		checks["netsis"] = map[string]interface{}{"status": "disabled"}
	}

	if rt.cache != nil {
		if err := rt.cache.Ping(ctx); err != nil {
			rt.logger.Warn("redis health check failed", zap.Error(err))
			checks["cache"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		} else {
			checks["cache"] = map[string]interface{}{"status": "healthy"}
		}
	} else {
		checks["cache"] = map[string]interface{}{"status": "disabled"}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
