package main

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	_, closeStore, err := storage.Open(context.Background(), storage.Options{
		Driver:        cfg.StoreDriver,
		DSN:           cfg.StoreDSN,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Pool:          db.PoolOptions{MaxConns: 1},
		Logger:        logger,
		Migrate:       true,
	})
	if err != nil {
		logger.Fatal("apply migrations", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	closeStore()

	logger.Info("migrations applied", zap.String("driver", cfg.StoreDriver))
}
