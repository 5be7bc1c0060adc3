// Package cache provides byte caches for generated content.
package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/infra/config"
)

// Cache stores values by key with an expiry.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value. A non-positive ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New creates the cache described by cfg.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "none":
		zlog.Info().Msg("cache: disabled")
		return Nop{}, nil
	case "memory", "":
		zlog.Info().Msg("cache: using memory cache")
		return NewMemory(), nil
	case "redis":
		c, err := NewRedis(RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		zlog.Info().Msgf("cache: using redis: addr=%s db=%d", cfg.RedisAddr, cfg.RedisDB)
		return c, nil
	default:
		return nil, errors.Newf("unsupported cache type: %s", cfg.Type)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) Close() error { return nil }
