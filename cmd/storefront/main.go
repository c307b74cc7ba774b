package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/gateway"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/repository/localcart"
	tokenrepo "storefront/internal/repository/token"
	"storefront/internal/service/account"
	"storefront/internal/service/catalog"
	"storefront/internal/service/orders"
	"storefront/internal/service/session"
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

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, closeStore, err := storage.Open(ctx, storage.Options{
		Driver:        cfg.StoreDriver,
		DSN:           cfg.StoreDSN,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Retention:     cfg.SlotRetention,
		Pool:          poolOptions(cfg),
		Logger:        logger,
		Migrate:       true,
	})
	if err != nil {
		logger.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()
	go storage.RunSweeper(ctx, store, cfg.SlotRetention, cfg.SlotSweep, logger)

	api := gateway.New(gateway.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger,
	})
	deps := session.Deps{
		API:    api,
		Carts:  localcart.New(store, cfg.CartStorageKey),
		Tokens: tokenrepo.NewStore(store),
		Logger: logger,
	}
	registry := session.NewRegistry(deps.Build, cfg.SessionIdleTTL, logger)
	go registry.Run(ctx, cfg.SessionSweep)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, store, httpserver.Deps{
		Sessions:       registry,
		Catalog:        catalog.New(api, logger),
		Orders:         orders.New(api, logger),
		Accounts:       account.New(api, logger),
		AllowedOrigins: cfg.AllowedOrigins,
		CookieSecure:   cfg.CookieSecure,
		AuthRatePerMin: cfg.AuthRatePerMin,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
			zap.String("api", cfg.APIBaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

func poolOptions(cfg config.Config) db.PoolOptions {
	return db.PoolOptions{
		MaxConns:        int32(cfg.StoreMaxConns),
		MinConns:        int32(cfg.StoreMinConns),
		MaxConnIdleTime: cfg.StoreConnIdle,
		MaxConnLifetime: cfg.StoreConnLife,
	}
}
