package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ithalat-ops/backoffice-api/docs"
	"github.com/ithalat-ops/backoffice-api/internal/auth"
	"github.com/ithalat-ops/backoffice-api/internal/cache"
	"github.com/ithalat-ops/backoffice-api/internal/config"
	"github.com/ithalat-ops/backoffice-api/internal/database"
	"github.com/ithalat-ops/backoffice-api/internal/http/handler"
	"github.com/ithalat-ops/backoffice-api/internal/http/middleware"
	"github.com/ithalat-ops/backoffice-api/internal/http/router"
	"github.com/ithalat-ops/backoffice-api/internal/jobs"
	"github.com/ithalat-ops/backoffice-api/internal/logger"
	"github.com/ithalat-ops/backoffice-api/internal/netsis"
	"github.com/ithalat-ops/backoffice-api/internal/repository"
	"github.com/ithalat-ops/backoffice-api/internal/service"
	"github.com/ithalat-ops/backoffice-api/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// @title Import Back-Office API
// @version 1.0
// @description Catalog, RFQ, order, shipment and packing reconciliation API with Netsis ERP lookups

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description HS256 JWT Bearer token carrying a role claim

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)
	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// development reads the environment, other environments may pull secrets from Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	var archive storage.Archive = storage.DiscardArchive{}
	if cfg.Import.ArchiveUploads {
		archive, err = storage.NewArchive(&cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
	}
	log.Info("Storage initialized",
		zap.String("mode", cfg.Storage.Mode),
		zap.Bool("archive_uploads", cfg.Import.ArchiveUploads))

	// the ERP is optional; the app runs with soft-failing figures without it
	netsisClient, err := netsis.NewClient(&cfg.Netsis, log)
	if err != nil {
		log.Warn("Netsis connection failed, continuing without it", zap.Error(err))
		netsisClient = nil
	}
	var (
		stockReader  service.StockReader
		netsisHealth router.NetsisHealth
	)
	if netsisClient != nil {
		stockReader = netsisClient
		netsisHealth = netsisClient
	}

	var (
		figuresCache cache.FiguresCache = cache.NoopFiguresCache{}
		cachePinger  router.Pinger
		redisCache   *cache.RedisFiguresCache
	)
	if cfg.Cache.Enabled {
		redisCache = cache.NewRedisFiguresCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Warn("Redis unreachable, figures will not be cached until it recovers", zap.Error(err))
		}
		cancel()
		figuresCache = redisCache
		cachePinger = redisCache
	}

	ceiling, err := decimal.NewFromString(cfg.Import.NumericCeiling)
	if err != nil {
		log.Warn("invalid numeric ceiling, using default",
			zap.String("value", cfg.Import.NumericCeiling),
			zap.Error(err))
		ceiling = service.DefaultNumericCeiling
	}
	chunk := cfg.Import.ChunkSize

	// Repositories
	productRepo := repository.NewProductRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	gtipRepo := repository.NewGtipRepository(db)
	rfqRepo := repository.NewRfqRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	discrepancyRepo := repository.NewDiscrepancyRepository(db)
	numberRepo := repository.NewNumberSequenceRepository(db)

	// Services
	numbers := service.NewNumberSequenceService(numberRepo, log)
	productService := service.NewProductService(productRepo, gtipRepo, chunk, log)
	supplierService := service.NewSupplierService(supplierRepo, log)
	gtipService := service.NewGtipService(gtipRepo, log)
	rfqService := service.NewRfqService(rfqRepo, productRepo, supplierRepo, orderRepo, numbers, chunk, log)
	importService := service.NewRfqImportService(rfqRepo, productRepo, supplierRepo, archive, chunk, log)
	orderService := service.NewOrderService(orderRepo, productRepo, supplierRepo, numbers, chunk, log)
	shipmentService := service.NewShipmentService(shipmentRepo, supplierRepo, orderRepo, log)
	packingService := service.NewPackingService(log)
	discrepancyService := service.NewDiscrepancyService(discrepancyRepo, ceiling, chunk, log)
	netsisService := service.NewNetsisService(stockReader, productRepo, figuresCache, cfg.Cache.TTLDuration(), log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	uploadMB := cfg.Import.MaxUploadSizeMB
	rt := router.NewRouter(cfg, log, db, netsisHealth, cachePinger, authMiddleware, rateLimiter, router.Handlers{
		Auth:     handler.NewAuthHandler(),
		Product:  handler.NewProductHandler(productService, log),
		Supplier: handler.NewSupplierHandler(supplierService, log),
		Gtip:     handler.NewGtipHandler(gtipService, log),
		Rfq:      handler.NewRfqHandler(rfqService, importService, uploadMB, log),
		Order:    handler.NewOrderHandler(orderService, log),
		Shipment: handler.NewShipmentHandler(shipmentService, log),
		Packing:  handler.NewPackingHandler(packingService, discrepancyService, uploadMB, log),
		Netsis:   handler.NewNetsisHandler(netsisService, log),
	})

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled && netsisClient != nil {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterNameSyncJob(scheduler, netsisService, cfg.Jobs.NameSyncBatchSize, cfg.Jobs.NameSyncSchedule, log); err != nil {
			log.Error("Failed to register name sync job", zap.Error(err))
		} else {
			scheduler.Start()
		}
	} else {
		log.Info("Scheduled jobs disabled",
			zap.Bool("jobs_enabled", cfg.Jobs.Enabled),
			zap.Bool("netsis_available", netsisClient != nil))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if netsisClient != nil {
			if err := netsisClient.Close(); err != nil {
				log.Warn("Error closing Netsis connection", zap.Error(err))
			}
		}
		if redisCache != nil {
			if err := redisCache.Close(); err != nil {
				log.Warn("Error closing Redis connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
