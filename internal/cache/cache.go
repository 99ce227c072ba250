package cache

import (
	"context"
	"errors"
	"time"

	"github.com/darklegend/server/internal/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// KV is the key-value surface the server needs from a cache.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// New returns a Redis-backed KV if RedisAddr is set, otherwise an
// in-process one.
func New(cfg config.CacheConfig, log *zap.Logger) (KV, error) {
	if cfg.RedisAddr != "" {
		kv, err := NewRedis(cfg)
		if err != nil {
			return nil, err
		}
		log.Info("cache: redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
		return kv, nil
	}
	log.Info("cache: in-process")
	return NewLocal(), nil
}
