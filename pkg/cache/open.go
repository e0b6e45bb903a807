package cache

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Backend names accepted by Config.Backend.
const (
	BackendAuto   = ""
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config selects and configures the cache backend.
type Config struct {
	// Backend is one of the Backend constants. The empty value picks Redis
	// when RedisURL is set and no cache otherwise.
	Backend    string
	RedisURL   string
	SQLitePath string
	TTL        TTLs
}

// Open builds the cache described by cfg. Connection problems never fail
// startup: they are logged and a disabled cache is returned so the process
// keeps running without caching. Only an unknown backend name is an error.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (*Cache, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	backend := cfg.Backend
	if backend == BackendAuto {
		backend = BackendNone
		if cfg.RedisURL != "" {
			backend = BackendRedis
		}
	}

	switch backend {
	case BackendNone:
		log.Info("cache not configured, running without caching")
		return New(nil, BackendNone, cfg.TTL, log), nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			log.Warn("redis backend selected without REDIS_URL, running without caching")
			return New(nil, BackendNone, cfg.TTL, log), nil
		}
		store, err := NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, running without caching")
			return New(nil, BackendNone, cfg.TTL, log), nil
		}
		log.Info("redis cache connected")
		return New(store, BackendRedis, cfg.TTL, log), nil
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "pulse-cache.db"
		}
		store, err := NewSQLiteStore(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("sqlite cache unavailable, running without caching")
			return New(nil, BackendNone, cfg.TTL, log), nil
		}
		log.WithField("path", path).Info("sqlite cache opened")
		return New(store, BackendSQLite, cfg.TTL, log), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
