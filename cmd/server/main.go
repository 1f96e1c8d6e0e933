package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	inventoryapp "github.com/shopfront/backend/internal/application/inventory"
	invoiceapp "github.com/shopfront/backend/internal/application/invoice"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/export"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/shopfront/backend/docs"
)

//	@title			Shopfront Backend API
//	@version		1.0
//	@description	Shipment batch ledger, FIFO stock allocation and invoice lifecycle.

//	@contact.name	API Support
//	@contact.url	https://github.com/shopfront/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             logger.ParseLevel(cfg.Telemetry.LogsLevel),
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = lp.Bridge(log)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		MutexProfiling:  cfg.Telemetry.ProfilingMutex,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tp.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	log.Info("Starting Shopfront Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.DBTraceEnabled
	dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	dbTracing.WithoutVariables = !cfg.Telemetry.DBLogFullSQL
	dbTracing.DBSystem = dbSystem(db.Driver)
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// PostgreSQL schemas are owned by cmd/migrate
	if db.Driver != config.DriverPostgres {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Redis is optional; without it idempotency keys and allocation locks stay process local
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
	}
	idempotencyStore := cache.NewIdempotencyStore(redisClient, cfg.Idempotency, log)
	defer func() {
		_ = idempotencyStore.Close()
	}()
	locker := cache.NewAllocationLocker(redisClient, cfg.Inventory, log)

	// Business metrics
	metrics, err := telemetry.NewBusinessMetrics(mp.Meter("shopfront/business"), log)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	location, err := time.LoadLocation(cfg.Inventory.TimeZone)
	if err != nil {
		log.Fatal("Invalid inventory time zone", zap.String("tz", cfg.Inventory.TimeZone), zap.Error(err))
	}

	// Repositories and services
	batchRepo := persistence.NewGormShipmentBatchRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	batchService := inventoryapp.NewBatchService(batchRepo, inventoryapp.BatchServiceConfig{
		CodePrefix:     cfg.Inventory.BatchCodePrefix,
		Location:       location,
		MaxCodeRetries: cfg.Inventory.MaxCodeRetries,
	}, log)
	batchService.SetExporter(export.NewExcelLedgerExporter())
	batchService.SetMetrics(metrics)

	allocationService := inventoryapp.NewAllocationService(invoiceRepo, txScope, locker, log)
	allocationService.SetMetrics(metrics)

	invoiceService := invoiceapp.NewInvoiceService(invoiceRepo, txScope, invoiceapp.ServiceConfig{
		NumberPrefix:     cfg.Invoice.NumberPrefix,
		MaxNumberRetries: cfg.Invoice.MaxNumberRetries,
		Location:         location,
	}, log)
	invoiceService.SetMetrics(metrics)

	// HTTP
	jwtService := auth.NewJWTService(cfg.JWT)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion)
	systemHandler.AddCheck("database", func(ctx context.Context) error {
		return db.DB.WithContext(ctx).Exec("SELECT 1").Error
	})
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)

	var meter = mp.Meter("shopfront/http")
	if !mp.IsEnabled() {
		meter = nil
	}

	engine := router.NewEngine(router.Dependencies{
		Config:      cfg,
		Logger:      log,
		Tokens:      jwtService,
		AdminRole:   jwtService.AdminRole(),
		Idempotency: idempotencyStore,
		Labels:      invoiceService.Labels(),
		Meter:       meter,
		RateLimiter: router.DefaultRateLimiter(cfg.HTTP, stopCleanup),
		System:      systemHandler,
		Batches:     handler.NewBatchHandler(batchService),
		Allocations: handler.NewAllocationHandler(allocationService),
		Invoices:    handler.NewInvoiceHandler(invoiceService, jwtService.AdminRole()),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Failed to stop profiler", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush metrics", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited")
}

// dbSystem maps a configured driver to its OpenTelemetry db.system value
func dbSystem(driver string) string {
	switch driver {
	case config.DriverMySQL:
		return "mysql"
	case config.DriverSQLite:
		return "sqlite"
	default:
		return "postgresql"
	}
}
