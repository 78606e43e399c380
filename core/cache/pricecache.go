package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"jewelcost/internal/metrics"
)

// Origin reports where a value served by GetOrFetch came from.
type Origin string

const (
	// OriginLive means the value was fetched upstream on this call
	OriginLive Origin = "live"

	// OriginCached means a fresh TTL-tier value was served
	OriginCached Origin = "cached"

	// OriginFallback means the last known good value was served
	// after a failed live fetch
	OriginFallback Origin = "fallback"
)

// envelope wraps a cached value with its freshness metadata.
// expires_at is always created_at + ttl.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// FetchFunc produces a live value for a cache key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// flight is a single in-progress upstream fetch shared by every
// caller that missed on the same key.
type flight[T any] struct {
	done   chan struct{}
	val    T
	origin Origin
	err    error
}

// PriceCache is a typed two-tier cache over a Backend. The TTL tier
// holds the fresh value; the fallback tier holds the most recent value
// ever stored, with no expiry. It grows bounded only by the number of
// distinct keys.
type PriceCache[T any] struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]*flight[T]
}

// New creates a PriceCache over the given backend.
func New[T any](backend Backend, logger *zap.Logger) *PriceCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceCache[T]{
		backend:  backend,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]*flight[T]),
	}
}

// WithClock replaces the time source. Tests use this to advance time
// past a TTL without sleeping.
func (c *PriceCache[T]) WithClock(now func() time.Time) *PriceCache[T] {
	c.now = now
	return c
}

func fallbackKey(key string) string {
	return "fallback:" + key
}

// Get returns the cached value only while it is fresh. It never
// consults the fallback tier.
func (c *PriceCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	env, ok, err := c.readEnvelope(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	if c.now().After(env.ExpiresAt) {
		// logically evict; the backend janitor removes the bytes
		return zero, false, nil
	}

	return decode[T](env)
}

// Set writes the TTL entry and unconditionally overwrites the
// fallback entry for the key.
func (c *PriceCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	now := c.now()
	raw, err := json.Marshal(envelope{
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return err
	}

	if err := c.backend.Set(ctx, key, raw, ttl); err != nil {
		return err
	}
	return c.backend.Set(ctx, fallbackKey(key), raw, 0)
}

// GetFallback returns the last successfully stored value regardless
// of age. Absent only if the key was never set.
func (c *PriceCache[T]) GetFallback(ctx context.Context, key string) (T, bool, error) {
	var zero T

	env, ok, err := c.readEnvelope(ctx, fallbackKey(key))
	if err != nil || !ok {
		return zero, false, err
	}
	return decode[T](env)
}

// IsFresh reports whether a fresh TTL-tier value exists for the key.
func (c *PriceCache[T]) IsFresh(ctx context.Context, key string) bool {
	env, ok, err := c.readEnvelope(ctx, key)
	if err != nil || !ok {
		return false
	}
	return !c.now().After(env.ExpiresAt)
}

// RemainingTTL returns how long the TTL-tier value stays fresh, or
// zero if it is absent or already stale.
func (c *PriceCache[T]) RemainingTTL(ctx context.Context, key string) time.Duration {
	env, ok, err := c.readEnvelope(ctx, key)
	if err != nil || !ok {
		return 0
	}
	remaining := env.ExpiresAt.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetOrFetch returns the fresh cached value if present; otherwise it
// fetches upstream, caches on success, and returns the live value. If
// the fetch fails it serves the fallback value when one exists, else
// it returns the original fetch error.
//
// Concurrent callers missing on the same key share a single upstream
// fetch instead of issuing independent ones.
func (c *PriceCache[T]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[T]) (T, Origin, error) {
	var zero T

	if v, ok, err := c.Get(ctx, key); err == nil && ok {
		metrics.CacheHitsTotal.WithLabelValues(key).Inc()
		return v, OriginCached, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(key).Inc()

	c.mu.Lock()
	if f, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.val, f.origin, f.err
		case <-ctx.Done():
			return zero, "", ctx.Err()
		}
	}

	f := &flight[T]{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	f.val, f.origin, f.err = c.fetchAndStore(ctx, key, ttl, fetch)

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(f.done)

	return f.val, f.origin, f.err
}

func (c *PriceCache[T]) fetchAndStore(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[T]) (T, Origin, error) {
	var zero T

	v, err := fetch(ctx)
	if err == nil {
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("cache write failed",
				zap.String("key", key),
				zap.Error(setErr),
			)
		}
		return v, OriginLive, nil
	}

	c.logger.Warn("live fetch failed, trying fallback",
		zap.String("key", key),
		zap.Error(err),
	)

	if fb, ok, fbErr := c.GetFallback(ctx, key); fbErr == nil && ok {
		metrics.FallbackServesTotal.WithLabelValues(key).Inc()
		return fb, OriginFallback, nil
	}

	return zero, "", err
}

func (c *PriceCache[T]) readEnvelope(ctx context.Context, key string) (envelope, bool, error) {
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return envelope{}, false, nil
	}
	if !ok {
		return envelope{}, false, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, false, err
	}
	return env, true, nil
}

func decode[T any](env envelope) (T, bool, error) {
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return v, false, err
	}
	return v, true, nil
}
