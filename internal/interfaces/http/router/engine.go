package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/perfume/backend/internal/infrastructure/logger"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig holds what the global middleware chain needs
type EngineConfig struct {
	ServiceName string
	HTTP        config.HTTPConfig
	Tracing     bool
	Profiling   bool
	// Meter records HTTP metrics. Nil disables them.
	Meter metric.Meter
	// Limiter backs the global rate limit. Nil uses an in-process limiter.
	Limiter middleware.Limiter
	Logger  *zap.Logger
}

// NewEngine builds the gin engine with the global middleware chain. The
// returned function stops background work started for the engine and must be
// called on shutdown.
func NewEngine(cfg EngineConfig) (*gin.Engine, func()) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Tracing
	if cfg.ServiceName != "" {
		tracing.ServiceName = cfg.ServiceName
	}
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = cfg.Profiling

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(tracing))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize, UploadPath))
	}

	stop := func() {}
	if cfg.HTTP.RateLimitEnabled {
		limiter := cfg.Limiter
		if limiter == nil {
			local := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
			stop = local.Stop
			limiter = local
		}
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.Use(middleware.Language())
	engine.Use(middleware.SpanEnricher(), middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Meter, log))
	engine.Use(middleware.ProfilingWithConfig(profiling))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			"METHOD_NOT_ALLOWED", "Method not allowed", middleware.GetRequestID(c)))
	})
	return engine, stop
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.ExposeHeaders = append(cors.ExposeHeaders, "Idempotent-Replayed", "Content-Disposition")
	return cors
}
