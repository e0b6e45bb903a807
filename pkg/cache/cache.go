// Package cache provides the best-effort key/value cache that sits in front of
// the music catalog. Values are stored as JSON under deterministic keys with a
// per-kind TTL. The cache never fails a request: when the backing store is not
// configured or cannot be reached every read is a miss and every write is
// skipped, and runtime store errors are logged and reported as an Outcome
// rather than returned.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Store is the minimal key/value contract a cache backend must satisfy. Get
// reports found=false with a nil error for missing or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Outcome reports what a best-effort write or delete did. Callers may ignore
// it.
type Outcome int

const (
	// Stored means the store accepted the write.
	Stored Outcome = iota
	// Skipped means no store is available and nothing was attempted.
	Skipped
	// Failed means the store rejected the write or could not be reached.
	Failed
	// Deleted means the store removed the key, or it was already absent.
	Deleted
)

func (o Outcome) String() string {
	switch o {
	case Stored:
		return "stored"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Deleted:
		return "deleted"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Cache is the typed JSON facade over a Store. A Cache with a nil store is
// valid and behaves as permanently unavailable.
type Cache struct {
	store   Store
	backend string
	log     logrus.FieldLogger
	TTL     TTLs
}

// New wraps store. A nil store yields a disabled cache.
func New(store Store, backend string, ttl TTLs, log logrus.FieldLogger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if store == nil {
		backend = BackendNone
	}
	return &Cache{
		store:   store,
		backend: backend,
		log:     log.WithField("component", "cache"),
		TTL:     ttl.withDefaults(),
	}
}

// Disabled returns a cache that misses every read and skips every write.
func Disabled() *Cache {
	return New(nil, BackendNone, DefaultTTLs(), nil)
}

// Available reports whether a backing store is configured.
func (c *Cache) Available() bool { return c != nil && c.store != nil }

// Backend names the active store kind.
func (c *Cache) Backend() string {
	if c == nil {
		return BackendNone
	}
	return c.backend
}

// Get loads key into dest. It returns false on a miss, when the cache is
// disabled, when the store errors or when the stored bytes do not decode.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if !c.Available() {
		return false
	}
	kind := keyKind(key)
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		c.log.WithError(err).WithField("key", key).Warn("cache get failed")
		return false
	}
	if !found {
		cacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		cacheErrors.WithLabelValues("decode").Inc()
		c.log.WithError(err).WithField("key", key).Warn("cache entry undecodable")
		return false
	}
	cacheHits.WithLabelValues(kind).Inc()
	return true
}

// Set stores value as JSON under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) Outcome {
	if !c.Available() {
		return Skipped
	}
	data, err := json.Marshal(value)
	if err != nil {
		cacheErrors.WithLabelValues("encode").Inc()
		c.log.WithError(err).WithField("key", key).Warn("cache value unencodable")
		return Failed
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
		return Failed
	}
	return Stored
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) Outcome {
	if !c.Available() {
		return Skipped
	}
	if err := c.store.Del(ctx, key); err != nil {
		cacheErrors.WithLabelValues("del").Inc()
		c.log.WithError(err).WithField("key", key).Warn("cache delete failed")
		return Failed
	}
	return Deleted
}

// Ping reports whether the store currently answers.
func (c *Cache) Ping(ctx context.Context) bool {
	if !c.Available() {
		return false
	}
	if err := c.store.Ping(ctx); err != nil {
		c.log.WithError(err).Warn("cache ping failed")
		return false
	}
	return true
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	if !c.Available() {
		return nil
	}
	return c.store.Close()
}

// keyKind returns the prefix of key used as a metric label.
func keyKind(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
