package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nopadol/stockledger/internal/adapter/handler"
	"github.com/nopadol/stockledger/internal/adapter/storage"
	"github.com/nopadol/stockledger/internal/auth"
	"github.com/nopadol/stockledger/internal/config"
	"github.com/nopadol/stockledger/internal/core/service"
	"github.com/nopadol/stockledger/internal/port"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, relying on system environment")
	}
	cfg := config.Load()

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sqlx.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to mysql")

	// Redis is optional: the per-key lock and snapshot cache reduce contention
	// but the ledger stays correct without them.
	var cache port.CacheRepository
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
			rdb.Close()
			rdb = nil
		} else {
			cache = storage.NewRedisAdapter(rdb)
			logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Wiring
	mysqlAdapter := storage.NewMySQLAdapter(db)
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)

	guard := service.NewAccessGuard(mysqlAdapter)
	catalog := service.NewCatalogService(guard, mysqlAdapter, logger)
	ledger := service.NewLedgerService(guard, mysqlAdapter, cache, logger)
	inventory := service.NewInventoryService(catalog, ledger)
	business := service.NewBusinessService(guard, mysqlAdapter, logger)
	users := service.NewUserService(mysqlAdapter, jwtManager, logger)

	httpHandler := handler.NewHTTPHandler(inventory, business, users, logger)
	router := handler.NewRouter(httpHandler, jwtManager)

	// Background reconciliation audit: replay recently-touched ledgers and log
	// any drift against the stored snapshots.
	go func() {
		ticker := time.NewTicker(cfg.Audit.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checked, err := ledger.AuditRecent(ctx, cfg.Audit.Window)
				if err != nil {
					logger.Warn("reconciliation audit failed", zap.Error(err))
					continue
				}
				logger.Info("reconciliation audit complete", zap.Int("snapshots_checked", checked))
			}
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Server.AppEnv == "development" {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = cfg.Logger.Encoding
	if level, err := zap.ParseAtomicLevel(cfg.Logger.Level); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
