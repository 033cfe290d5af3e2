package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ticket-ops/catalog-sync-go/internal/audit"
	"github.com/ticket-ops/catalog-sync-go/internal/cache"
	"github.com/ticket-ops/catalog-sync-go/internal/catalog"
	"github.com/ticket-ops/catalog-sync-go/internal/config"
	"github.com/ticket-ops/catalog-sync-go/internal/handler"
	"github.com/ticket-ops/catalog-sync-go/internal/middleware"
	"github.com/ticket-ops/catalog-sync-go/internal/models"
	"github.com/ticket-ops/catalog-sync-go/internal/outbox"
	"github.com/ticket-ops/catalog-sync-go/internal/projection"
	"github.com/ticket-ops/catalog-sync-go/internal/service"
	"github.com/ticket-ops/catalog-sync-go/internal/validation"
	"github.com/ticket-ops/catalog-sync-go/internal/warehouse"
	"github.com/ticket-ops/catalog-sync-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	warehousePool, err := initPool(ctx, cfg.Warehouse)
	if err != nil {
		logger.Log.Fatal("Failed to connect to warehouse", zap.Error(err))
	}
	defer warehousePool.Close()

	catalogPool, err := initPool(ctx, cfg.Catalog)
	if err != nil {
		logger.Log.Fatal("Failed to connect to catalog", zap.Error(err))
	}
	defer catalogPool.Close()

	logger.Log.Info("Database connections established",
		zap.String("warehouse", cfg.Warehouse.Host),
		zap.String("catalog", cfg.Catalog.Host),
	)

	publisher, err := outbox.NewPublisher(&cfg.Queue)
	if err != nil {
		logger.Log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()

	invalidator, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer invalidator.Close()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Projection.Region))
	if err != nil {
		logger.Log.Fatal("Failed to load AWS config", zap.Error(err))
	}
	updater := projection.New(dynamodb.NewFromConfig(awsCfg), cfg.Projection.Table)

	gateway := warehouse.New(warehousePool)
	catalogStore := catalog.New(catalogPool)
	recorder := audit.New(warehousePool)
	validator := validation.New()

	blacklistService := service.NewBlacklistService(gateway, publisher, recorder, invalidator, validator)
	autopricingService := service.NewAutopricingService(gateway, catalogStore, updater, recorder, validator)

	viagogoStore, err := warehouse.NewMappingStore(warehousePool, models.MarketplaceViagogo)
	if err != nil {
		logger.Log.Fatal("Failed to initialize viagogo mapping store", zap.Error(err))
	}
	vividStore, err := warehouse.NewMappingStore(warehousePool, models.MarketplaceVivid)
	if err != nil {
		logger.Log.Fatal("Failed to initialize vivid mapping store", zap.Error(err))
	}
	viagogoService := service.NewMappingService(viagogoStore, recorder, publisher)
	vividService := service.NewMappingService(vividStore, recorder, publisher)

	router := buildRouter(cfg,
		handler.NewBlacklistHandler(blacklistService),
		handler.NewMappingHandler(viagogoService),
		handler.NewMappingHandler(vividService),
		handler.NewAutopricingHandler(autopricingService),
		handler.NewHealthHandler(gateway, publisher, invalidator),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
		if err := server.Close(); err != nil {
			logger.Log.Error("Failed to close server", zap.Error(err))
		}
		os.Exit(1)
	}

	logger.Log.Info("Server stopped gracefully")
}

func buildRouter(cfg *config.Config, blacklist *handler.BlacklistHandler, viagogo, vivid *handler.MappingHandler, autopricing *handler.AutopricingHandler, health *handler.HealthHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", health.LivenessProbe)
	router.GET("/health/ready", health.ReadinessProbe)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.NewAPIKeyAuth(cfg.Auth.APIKeys)
	api := router.Group("/", auth.Middleware())

	blacklist.Register(api.Group("/blacklist"))
	viagogo.Register(api.Group("/viagogomapping"))
	vivid.Register(api.Group("/vividmapping"))
	autopricing.Register(api.Group("/autopricing-config"))

	return router
}

// initPool opens a pgx pool and verifies connectivity.
func initPool(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConnIdleTime = dbCfg.MaxIdleTime
	poolConfig.MaxConnLifetime = dbCfg.MaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
