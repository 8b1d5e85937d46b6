package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marketbridge/settlement-service/internal/adapters/cache"
	"github.com/marketbridge/settlement-service/internal/adapters/logging"
	"github.com/marketbridge/settlement-service/internal/adapters/postgres"
	"github.com/marketbridge/settlement-service/internal/config"
	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
	dashboardService "github.com/marketbridge/settlement-service/internal/services/dashboard"
	settlementService "github.com/marketbridge/settlement-service/internal/services/settlement"
	"github.com/marketbridge/settlement-service/pkg/observability"
)

func main() {
	// Initialize logger
	zapLogger := initLogger()
	defer zapLogger.Sync()

	zapLogger.Info("Starting settlement service",
		zap.String("version", "0.1.0"),
	)

	// Load configuration from environment
	cfg, err := config.LoadFromEnv()
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Resolve the database password from the configured secret source
	if err := resolveDBPassword(context.Background(), cfg, zapLogger); err != nil {
		zapLogger.Fatal("Failed to resolve database password", zap.Error(err))
	}

	// Initialize database connection pool
	dbPool, err := initDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	zapLogger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	// Initialize cache backend
	aggCache, redisClient, err := initCache(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Wire repositories and services
	deps := initDependencies(dbPool, aggCache, cfg, zapLogger)

	zapLogger.Info("Services initialized",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("seller_commission_rate", deps.policy.SellerRate.String()),
		zap.String("partner_commission_rate", deps.policy.PartnerRate.String()),
	)

	// Start metrics and health server
	healthChecker := observability.NewHealthChecker(dbPool, redisClient)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker)

	zapLogger.Info("Metrics server listening",
		zap.Int("port", cfg.Server.MetricsPort),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down...")

	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		zapLogger.Error("Metrics server shutdown error", zap.Error(err))
	}

	zapLogger.Info("Server stopped")
}

// Dependencies holds all initialized services
type Dependencies struct {
	policy domain.CommissionPolicy

	settlementManagement *settlementService.ManagementService
	settlementRead       *settlementService.ReadService
	sellerDashboard      *dashboardService.SellerService
	supplierDashboard    *dashboardService.SupplierService
}

// initLogger initializes the logger
func initLogger() *zap.Logger {
	env := os.Getenv("ENVIRONMENT")

	if env == "production" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		logger, _ := zapCfg.Build()
		return logger
	}

	logger, _ := zap.NewDevelopment()
	return logger
}

// resolveDBPassword overwrites cfg.Database.Password from the configured
// secret source when a secret path is set. With source "env" and no path
// the DB_PASSWORD variable is used as-is.
func resolveDBPassword(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Secrets.DBPasswordPath == "" {
		return nil
	}

	source, err := initSecretSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	secret, err := source.GetSecret(ctx, cfg.Secrets.DBPasswordPath)
	if err != nil {
		return fmt.Errorf("get secret %q: %w", cfg.Secrets.DBPasswordPath, err)
	}

	cfg.Database.Password = secret.Value
	logger.Info("Database password resolved from secret source",
		zap.String("source", cfg.Secrets.Source),
		zap.String("path", cfg.Secrets.DBPasswordPath),
	)
	return nil
}

// initDatabase initializes the PostgreSQL connection pool
func initDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// initCache selects the aggregate cache backend. The redis client is
// returned separately so the health checker and shutdown can reach it.
func initCache(cfg *config.Config, logger *zap.Logger) (ports.Cache, *redis.Client, error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemory(cfg.Cache.MaxEntries), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Redis cache connected", zap.String("addr", cfg.Cache.RedisAddr))
	return cache.NewRedis(client, cfg.Cache.KeyPrefix), client, nil
}

// initDependencies wires repositories and services with explicit DI
func initDependencies(dbPool *pgxpool.Pool, aggCache ports.Cache, cfg *config.Config, zapLogger *zap.Logger) *Dependencies {
	logger := logging.NewZapLogger(zapLogger)

	db := postgres.NewDBExecutor(dbPool)
	orderRepo := postgres.NewOrderRepository(db)
	settlementRepo := postgres.NewSettlementRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	policy := domain.CommissionPolicy{
		SellerRate:  decimal.NewFromFloat(cfg.Commission.SellerRate),
		PartnerRate: decimal.NewFromFloat(cfg.Commission.PartnerRate),
	}

	return &Dependencies{
		policy:               policy,
		settlementManagement: settlementService.NewManagementService(db, orderRepo, settlementRepo, policy, logger),
		settlementRead:       settlementService.NewReadService(db, orderRepo, settlementRepo, aggCache, logger),
		sellerDashboard:      dashboardService.NewSellerService(orderRepo, catalogRepo, aggCache, logger),
		supplierDashboard:    dashboardService.NewSupplierService(orderRepo, catalogRepo, aggCache, logger),
	}
}
