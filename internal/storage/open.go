package storage

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/db"
	"storefront/internal/migrate"

	"go.uber.org/zap"
)

// Options selects and configures a backend.
type Options struct {
	Driver        string
	DSN           string
	RedisPassword string
	RedisDB       int
	// Retention is how long an untouched slot lives. Redis applies it as a
	// key TTL; the sql backends rely on RunSweeper.
	Retention time.Duration
	Pool      db.PoolOptions
	Logger    *zap.Logger
	// Migrate applies the embedded schema before the store is returned.
	// Redis has no schema.
	Migrate bool
}

// Open connects to the backend named by opts.Driver. The returned func
// releases the connection.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	switch opts.Driver {
	case "sqlite", "":
		if opts.Migrate {
			if err := migrate.ApplySQLite(ctx, opts.DSN); err != nil {
				return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		sqlDB, err := db.OpenSQLite(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLite(sqlDB), func() { _ = sqlDB.Close() }, nil
	case "postgres":
		pool, err := db.Connect(ctx, opts.DSN, opts.Pool, opts.Logger)
		if err != nil {
			return nil, nil, err
		}
		if opts.Migrate {
			if err := migrate.Apply(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return NewPostgres(pool), pool.Close, nil
	case "redis":
		client, err := db.ConnectRedis(ctx, opts.DSN, opts.RedisPassword, opts.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis(client, opts.Retention), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
