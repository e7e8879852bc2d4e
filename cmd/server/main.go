package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/shop-ledger/internal/adapter/handler"
	"github.com/rl1809/shop-ledger/internal/adapter/storage"
	"github.com/rl1809/shop-ledger/internal/config"
	"github.com/rl1809/shop-ledger/internal/core/service"
	"github.com/rl1809/shop-ledger/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	initLogger(cfg.LogMode)
	defer zap.L().Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		zap.S().Fatalw("storage init failed", "backend", cfg.Backend, "error", err)
	}
	defer cleanup()

	inventory := service.NewInventoryService(store)

	mux := http.NewServeMux()
	httpHandler := handler.NewHTTPHandler(inventory)
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.WithRequestLogging(mux),
	}

	go func() {
		zap.S().Infow("http server listening", "addr", cfg.HTTPAddr, "backend", cfg.Backend)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			zap.S().Errorw("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.S().Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	zap.S().Info("http server stopped")
}

func initLogger(mode string) {
	var zapConfig zap.Config
	if mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// buildStore selects the storage backend from configuration. The memory
// backend is the default; the mysql backend is the durable variant and may
// carry a Redis stock cache in front of its reservation path.
func buildStore(ctx context.Context, cfg config.Config) (port.Store, func(), error) {
	if cfg.Backend == config.BackendMemory {
		return storage.NewMemoryAdapter(), func() {}, nil
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	zap.S().Info("connected to mysql")

	var cache port.StockCache
	cleanup := func() { db.Close() }

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			db.Close()
			return nil, nil, err
		}
		zap.S().Info("connected to redis")

		redisCache := storage.NewRedisAdapter(rdb)
		if err := warmStockCache(ctx, db, redisCache); err != nil {
			rdb.Close()
			db.Close()
			return nil, nil, err
		}

		cache = redisCache
		cleanup = func() {
			rdb.Close()
			db.Close()
		}
	}

	return storage.NewMySQLAdapter(db, cache), cleanup, nil
}

// warmStockCache seeds the cached stock counters from the catalog so the
// fast-reject path starts in sync with the database.
func warmStockCache(ctx context.Context, db *sql.DB, cache *storage.RedisAdapter) error {
	rows, err := db.QueryContext(ctx, `SELECT id, available FROM products`)
	if err != nil {
		return err
	}
	defer rows.Close()

	seeded := 0
	for rows.Next() {
		var id, available int64
		if err := rows.Scan(&id, &available); err != nil {
			return err
		}
		if err := cache.SetStock(ctx, id, available); err != nil {
			return err
		}
		seeded++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	zap.S().Infow("stock cache warmed", "products", seeded)
	return nil
}
