package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/perfume/backend/internal/application/catalog"
	contactapp "github.com/perfume/backend/internal/application/contact"
	contentapp "github.com/perfume/backend/internal/application/content"
	eventapp "github.com/perfume/backend/internal/application/event"
	identityapp "github.com/perfume/backend/internal/application/identity"
	mediaapp "github.com/perfume/backend/internal/application/media"
	orderapp "github.com/perfume/backend/internal/application/order"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/perfume/backend/internal/infrastructure/auth"
	"github.com/perfume/backend/internal/infrastructure/cache"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/perfume/backend/internal/infrastructure/event"
	"github.com/perfume/backend/internal/infrastructure/invoice"
	"github.com/perfume/backend/internal/infrastructure/logger"
	"github.com/perfume/backend/internal/infrastructure/payment"
	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/perfume/backend/internal/infrastructure/storage"
	"github.com/perfume/backend/internal/infrastructure/telemetry"
	"github.com/perfume/backend/internal/interfaces/http/handler"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
	"github.com/perfume/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	shutdownTimeout      = 30 * time.Second
	eventDedupTTL        = 24 * time.Hour
	meterName            = "github.com/perfume/backend"
	eventWorkers         = 4
	eventQueueSize       = 256
	defaultShippingFee   = "50"
	defaultFreeThreshold = "1000"
)

func main() {
	configFile := flag.String("config", os.Getenv("PERFUME_CONFIG"), "path to config.toml")
	flag.Parse()

	loader := config.NewLoader(*configFile)
	cfg, err := loader.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, level, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Profiling, version, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := logger.Tee(baseLog, tel.LogCore(level))
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			baseLog.Error("Error shutting down telemetry", zap.Error(err))
		}
		_ = log.Sync()
	}()

	log.Info("Starting perfume backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if loader.Watch(func(next *config.Config) {
		if err := logger.SetLevel(level, next.Log.Level); err != nil {
			log.Warn("Ignoring invalid log level", zap.String("level", next.Log.Level), zap.Error(err))
			return
		}
		log.Info("Log level changed", zap.String("level", next.Log.Level))
	}, func(err error) {
		log.Warn("Config reload rejected", zap.Error(err))
	}) {
		log.Info("Watching config file", zap.String("file", loader.ConfigFile()))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowQueryThresh))
	db, err := persistence.NewDatabase(ctx, &cfg.Database, log,
		persistence.WithGormLogger(gormLog),
		persistence.WithPlugins(telemetry.DBTracingPlugins(
			cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled, cfg.Database.DBName, log)...),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	// Redis backs token revocation, the catalog cache and idempotency
	// keys. Without it every instance keeps its own in-memory copies.
	var (
		revocations   auth.RevocationStore
		catalogCache  catalogapp.Cache
		idempotency   shared.IdempotencyStore
		globalLimiter middleware.Limiter
		authLimiter   middleware.Limiter
		optional      = map[string]handler.HealthChecker{}
	)
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		invalidator := cache.NewRedisInvalidator(client, cache.WithInvalidatorLogger(log))
		defer func() { _ = invalidator.Close() }()
		l1 := cache.NewInMemoryCache()
		defer func() { _ = l1.Close() }()
		tiered := cache.NewTieredCache(l1, cache.NewRedisCache(client),
			cache.WithInvalidator(invalidator),
			cache.WithL1TTL(cfg.Cache.LocalTTL),
			cache.WithTieredLogger(log),
		)
		go func() {
			if err := tiered.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Cache invalidation listener stopped", zap.Error(err))
			}
		}()
		revocations = auth.NewRedisRevocationStore(client)
		catalogCache = tiered
		idempotency = cache.NewRedisIdempotencyStore(client)
		globalLimiter = middleware.NewRedisRateLimiter(client, "global", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		if cfg.HTTP.AuthRateLimitEnabled {
			authLimiter = middleware.NewRedisRateLimiter(client, "auth", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		}
		optional["redis"] = cache.NewRedisHealth(client, log)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memIdempotency := cache.NewInMemoryIdempotencyStore()
		defer func() { _ = memIdempotency.Close() }()
		memRevocations := auth.NewMemoryRevocationStore()
		defer memRevocations.Stop()
		memCache := cache.NewInMemoryCache()
		defer func() { _ = memCache.Close() }()
		revocations = memRevocations
		catalogCache = memCache
		idempotency = memIdempotency
		if cfg.HTTP.AuthRateLimitEnabled {
			local := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
			defer local.Stop()
			authLimiter = local
		}
		log.Warn("Redis disabled, using in-memory revocations, cache and idempotency store")
	}

	// Object storage
	var objects mediaapp.ObjectStorage = storage.NewStubObjectStorage()
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			log.Fatal("Failed to configure object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Error("Failed to ensure storage bucket", zap.String("bucket", s3.GetBucket()), zap.Error(err))
		}
		objects = s3
	} else {
		log.Warn("Object storage disabled, uploads are rejected")
	}

	// Metrics
	meter := tel.Meter.Meter(meterName)
	var (
		mediaMetrics mediaapp.Metrics
		shopMetrics  eventapp.ShopMetrics
	)
	if m, err := telemetry.NewShopMetrics(meter); err != nil {
		log.Warn("Shop metrics disabled", zap.Error(err))
	} else {
		mediaMetrics = m
		shopMetrics = m
	}

	// Events are dispatched by a worker pool after the request commits
	eventBus := event.NewInMemoryEventBus(log, event.WithAsync(eventWorkers, eventQueueSize))
	eventBus.Subscribe(event.NewIdempotentHandler(catalogapp.NewProductDeletedHandler(objects, log), idempotency, eventDedupTTL, log))
	eventBus.Subscribe(eventapp.NewShopHandler(shopMetrics, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Payments and invoices
	gateways := paymentGateways(cfg.Payment, log)
	var invoices orderapp.InvoiceRenderer
	if cfg.Invoice.Enabled {
		converter := invoice.NewPDFConverter(invoice.PDFConverterOptions{
			RemoteURL: cfg.Invoice.ChromeURL,
			NoSandbox: cfg.Invoice.NoSandbox,
			Timeout:   cfg.Invoice.Timeout,
			Logger:    log,
		})
		defer func() { _ = converter.Close() }()
		invoices = invoice.NewGenerator(cfg.Invoice.StoreName, converter, log)
	}

	currency := valueobject.Currency(cfg.Shop.Currency)
	shipping, err := shippingPolicy(cfg.Shop, currency)
	if err != nil {
		log.Fatal("Invalid shipping configuration", zap.Error(err))
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	mediaRepo := persistence.NewGormMediaRepository(db.DB)
	contentRepo := persistence.NewGormContentRepository(db.DB)
	messageRepo := persistence.NewGormContactMessageRepository(db.DB)
	sampleRepo := persistence.NewGormSampleRequestRepository(db.DB)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, revocations, eventBus, log)
	userService := identityapp.NewUserService(userRepo, jwtService, revocations, eventBus, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo, catalogCache, cfg.Cache.CatalogTTL, eventBus, log)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, catalogCache, eventBus,
		catalogapp.ProductServiceConfig{Currency: currency, CacheTTL: cfg.Cache.CatalogTTL}, log)
	orderService := orderapp.NewService(orderapp.ServiceConfig{
		Orders:         orderRepo,
		Products:       productRepo,
		Transactions:   db,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Shop.IdempotencyTTL,
		CatalogCache:   catalogCache,
		Gateways:       gateways,
		Invoices:       invoices,
		Shipping:       shipping,
		Currency:       currency,
		Events:         eventBus,
		Logger:         log,
	})
	statsService := orderapp.NewStatsService(orderRepo, productRepo, sampleRepo, messageRepo, currency, log)
	mediaService := mediaapp.NewService(mediaRepo, objects, mediaMetrics, mediaapp.ServiceConfig{
		MaxUploadSize:       cfg.Storage.MaxUploadSize,
		AllowedContentTypes: cfg.Storage.AllowedContentTypes,
		PresignExpiry:       cfg.Storage.PresignExpiry,
	}, log)
	contentService := contentapp.NewService(contentRepo, log)
	messageService := contactapp.NewMessageService(messageRepo, log)
	sampleService := contactapp.NewSampleService(sampleRepo, productRepo, eventBus, log)

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, stopEngine := router.NewEngine(router.EngineConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		HTTP:        cfg.HTTP,
		Tracing:     cfg.Telemetry.Enabled,
		Profiling:   cfg.Profiling.Enabled,
		Meter:       meter,
		Limiter:     globalLimiter,
		Logger:      log,
	})
	defer stopEngine()

	routes := router.RegisterAPI(engine, router.Handlers{
		Auth:       handler.NewAuthHandler(authService, userService),
		Users:      handler.NewUserHandler(userService),
		Categories: handler.NewCategoryHandler(categoryService),
		Products:   handler.NewProductHandler(productService),
		Orders:     handler.NewOrderHandler(orderService),
		Media:      handler.NewMediaHandler(mediaService),
		Content:    handler.NewContentHandler(contentService),
		Contact:    handler.NewContactHandler(messageService, sampleService),
		Stats:      handler.NewStatsHandler(statsService),
		System:     handler.NewSystemHandler(cfg.App.Name, version, db, optional),
	}, router.APIConfig{
		Tokens:        authService,
		AuthLimiter:   authLimiter,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
	})
	log.Info("Routes registered", zap.Int("count", len(routes)))
	for _, rt := range routes {
		log.Debug("Route", zap.String("group", rt.Group), zap.String("method", rt.Method), zap.String("path", rt.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// paymentGateways builds the enabled online payment adapters. A gateway with
// incomplete credentials is skipped so checkout falls back to the others.
func paymentGateways(cfg config.PaymentConfig, log *zap.Logger) []order.PaymentGateway {
	var gateways []order.PaymentGateway
	if cfg.PayPal.Enabled {
		if pp, err := payment.NewPayPalAdapter(cfg.PayPal, log); err != nil {
			log.Error("PayPal disabled", zap.Error(err))
		} else {
			gateways = append(gateways, pp)
		}
	}
	if cfg.Paymob.Enabled {
		if pm, err := payment.NewPaymobAdapter(cfg.Paymob, log); err != nil {
			log.Error("Paymob disabled", zap.Error(err))
		} else {
			gateways = append(gateways, pm)
		}
	}
	return gateways
}

func shippingPolicy(cfg config.ShopConfig, currency valueobject.Currency) (order.ShippingPolicy, error) {
	fee, err := money(cfg.ShippingFlatFee, defaultShippingFee, currency)
	if err != nil {
		return order.ShippingPolicy{}, err
	}
	threshold, err := money(cfg.FreeShippingThreshold, defaultFreeThreshold, currency)
	if err != nil {
		return order.ShippingPolicy{}, err
	}
	return order.ShippingPolicy{FlatFee: fee, FreeThreshold: threshold}, nil
}

func money(amount, fallback string, currency valueobject.Currency) (valueobject.Money, error) {
	if amount == "" {
		amount = fallback
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return valueobject.Money{}, err
	}
	return valueobject.NewMoney(d, currency)
}
