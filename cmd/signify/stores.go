package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/cache"
	"github.com/matthewbaird/signify/internal/config"
	"github.com/matthewbaird/signify/internal/people"
	"github.com/matthewbaird/signify/internal/signallog"
)

func nopClose() error { return nil }

// openLogStore opens the configured signal log store. The returned func
// releases it.
func openLogStore(ctx context.Context, cfg config.StoreConfig) (signallog.Store, func() error, error) {
	switch cfg.Driver {
	case config.StoreSQLite:
		s, err := signallog.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return signallog.NewMemoryStore(), nopClose, nil
	}
}

// openTimelineCache returns nil when caching is disabled.
func openTimelineCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*cache.TimelineCache, func() error, error) {
	switch cfg.Driver {
	case config.CacheRedis:
		client := cache.NewRedisClient(cfg.Addr, cfg.Password, cfg.DB)
		kv := cache.NewRedisKVStore(client)
		if err := kv.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
		}
		logger.Info("timeline cache connected", zap.String("addr", cfg.Addr))
		return cache.NewTimelineCache(kv, cfg.TTL), client.Close, nil
	case config.CacheMemory:
		return cache.NewTimelineCache(cache.NewMemoryKVStore(), cfg.TTL), nopClose, nil
	default:
		return nil, nopClose, nil
	}
}

// seedDemo loads the demo people and their signal logs.
func seedDemo(ctx context.Context, ps people.Store, logs signallog.Store) error {
	if err := people.SeedDemoData(ctx, ps); err != nil {
		return fmt.Errorf("seeding people: %w", err)
	}
	if err := signallog.SeedDemoData(ctx, logs); err != nil {
		return fmt.Errorf("seeding signal logs: %w", err)
	}
	return nil
}
