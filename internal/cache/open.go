package cache

import (
	"context"
	"fmt"

	"github.com/dtroode/erp-sessions/internal/config"
	"github.com/dtroode/erp-sessions/internal/model"
)

// Open builds the backend selected by cfg. It returns a nil Backend for "none".
// An unreachable redis yields an error wrapping model.ErrCacheUnavailable; callers may run without a cache.
func Open(ctx context.Context, cfg config.Cache) (Backend, error) {
	switch cfg.Backend {
	case "none", "":
		return nil, nil
	case "bunt":
		b, err := NewBuntBackend(cfg.BuntPath)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "redis":
		b := NewRedisBackend(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := b.Ping(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("%w: redis %s: %v", model.ErrCacheUnavailable, cfg.RedisAddr, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
