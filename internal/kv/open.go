package kv

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/guidecode/internal/kv/postgres"
	"github.com/and161185/guidecode/internal/kv/redis"
	"github.com/and161185/guidecode/internal/kv/sqlite"
	"github.com/and161185/guidecode/internal/migrate"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

var (
	_ Store = (*Memory)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.Store)(nil)
	_ Store = (*redis.Store)(nil)
)

// Options selects and configures a backend.
type Options struct {
	Backend Backend

	SQLitePath string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open constructs the configured backend. SQL backends are migrated first.
func Open(ctx context.Context, opts Options, log *zap.Logger) (Store, error) {
	migrate.SetLogger(log)
	switch opts.Backend {
	case BackendMemory:
		log.Debug("kv backend", zap.String("backend", string(opts.Backend)))
		return NewMemory(), nil

	case BackendSQLite, "":
		log.Debug("kv backend", zap.String("backend", "sqlite"), zap.String("path", opts.SQLitePath))
		return sqlite.Open(ctx, opts.SQLitePath)

	case BackendPostgres:
		if opts.PostgresDSN == "" {
			return nil, errors.New("postgres backend requires a DSN")
		}
		if err := migrate.UpPostgres(ctx, opts.PostgresDSN); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		db, err := postgres.Connect(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Debug("kv backend", zap.String("backend", string(opts.Backend)))
		return postgres.NewStore(db), nil

	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, errors.New("redis backend requires an address")
		}
		log.Debug("kv backend", zap.String("backend", string(opts.Backend)), zap.String("addr", opts.RedisAddr))
		return redis.Open(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
