package router

import (
	"time"

	"github.com/gin-gonic/gin"
	appinvoice "github.com/shopfront/backend/internal/application/invoice"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Dependencies is everything the HTTP surface needs
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Tokens      middleware.TokenValidator
	AdminRole   string
	Idempotency shared.IdempotencyStore
	Labels      *appinvoice.StatusLabels
	Meter       metric.Meter // nil disables HTTP metrics
	RateLimiter *middleware.RateLimiter

	System      *handler.SystemHandler
	Batches     *handler.BatchHandler
	Allocations *handler.AllocationHandler
	Invoices    *handler.InvoiceHandler
}

// NewEngine builds the gin engine with the middleware stack and every route
func NewEngine(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: request id first so every later log line carries it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(deps.Meter, log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSFromConfig(cfg.HTTP))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if deps.RateLimiter != nil {
		engine.Use(middleware.RateLimit(deps.RateLimiter))
	}
	if deps.Labels != nil {
		engine.Use(middleware.Language(deps.Labels))
	}
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = cfg.Telemetry.ProfilingEnabled
	engine.Use(middleware.Profiling(profiling))

	authenticate := middleware.JWTAuth(deps.Tokens, log)
	requireAdmin := middleware.RequireRole(deps.AdminRole)

	engine.GET("/health", deps.System.Health)

	swagger := engine.Group("/swagger", middleware.SwaggerProtection(cfg.Swagger, authenticate, requireAdmin)...)
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var idempotent gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.Idempotency.Enabled {
		idempotent = middleware.Idempotency(deps.Idempotency, cfg.Idempotency.TTL, log)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))

	public := NewDomainGroup("public", "")
	public.GET("/invoice-statuses", deps.Invoices.Statuses)

	invoices := NewDomainGroup("invoices", "/invoices").
		Use(authenticate, middleware.SpanAttributes())
	invoices.POST("", idempotent, deps.Invoices.Create)
	invoices.GET("/:id", deps.Invoices.GetByID)
	invoices.GET("/:id/history", deps.Invoices.History)

	admin := NewDomainGroup("admin", "/admin").
		Use(authenticate, requireAdmin, middleware.SpanAttributes())

	adminInvoices := admin.Group("invoices", "/invoices")
	adminInvoices.GET("", deps.Invoices.List)
	adminInvoices.POST("/:id/transitions", deps.Invoices.Transition)
	adminInvoices.POST("/:id/allocate", idempotent, deps.Allocations.AllocateInvoice)

	batches := admin.Group("batches", "/batches")
	batches.POST("", idempotent, deps.Batches.Create)
	batches.GET("", deps.Batches.List)
	batches.GET("/export", deps.Batches.Export)
	batches.GET("/available", deps.Batches.Available)
	batches.GET("/code/:code", deps.Batches.GetByCode)
	batches.GET("/:id", deps.Batches.GetByID)
	batches.POST("/:id/restock", deps.Batches.Restock)

	admin.POST("/allocations", idempotent, deps.Allocations.Allocate)

	r.Register(public).Register(invoices).Register(admin)
	r.Setup()

	return engine
}

// DefaultRateLimiter builds the per-client limiter from the HTTP settings, or nil when disabled
func DefaultRateLimiter(cfg config.HTTPConfig, stop <-chan struct{}) *middleware.RateLimiter {
	if !cfg.RateLimitEnabled {
		return nil
	}
	rl := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitBurst)
	rl.StartCleanup(time.Minute, stop)
	return rl
}
