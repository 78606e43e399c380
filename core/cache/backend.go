// Package cache - Two-tier price cache
// A TTL tier answers "is this value current"; a never-expiring fallback
// tier answers "do we have anything usable at all". An upstream outage
// degrades freshness without making pricing unavailable.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend is the raw byte store underneath the typed cache.
// Implemented by the in-memory backend (single instance) and the
// redis backend (multi-instance deployments).
type Backend interface {
	// Get returns the raw bytes for key. ok=false if not present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for key. A ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
}

// Config selects and tunes the backend.
type Config struct {
	// Backend is "memory" or "redis"
	Backend string

	// Prefix namespaces every key
	Prefix string

	// CleanupInterval is the memory-backend janitor interval
	CleanupInterval time.Duration
}

// NewBackend builds the configured backend. The redis client may be
// nil when the memory backend is selected.
func NewBackend(cfg Config, redisClient *redis.Client) Backend {
	switch cfg.Backend {
	case "redis":
		return NewRedisBackend(redisClient, cfg.Prefix)
	default:
		return NewMemoryBackend(cfg.CleanupInterval)
	}
}
