package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value []byte
	// zero expiresAt means the entry never expires
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryBackend is an in-process byte store with per-entry TTL and a
// background janitor for expired entries.
type MemoryBackend struct {
	mu              sync.RWMutex
	items           map[string]memoryEntry
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
	cleanupInterval time.Duration
}

// NewMemoryBackend creates an in-memory backend. A non-positive
// cleanup interval falls back to 5 minutes.
func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	b := &MemoryBackend{
		items:           make(map[string]memoryEntry),
		stopCleanup:     make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}

	go b.cleanupExpired()

	return b
}

// Get retrieves a value, treating expired entries as absent.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	entry, ok := b.items[key]
	b.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	now := time.Now()
	if entry.expired(now) {
		b.mu.Lock()
		if e, exists := b.items[key]; exists && e.expired(now) {
			delete(b.items, key)
		}
		b.mu.Unlock()
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a value. A ttl <= 0 stores it without expiry.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	b.mu.Lock()
	b.items[key] = memoryEntry{
		value:     valueCopy,
		expiresAt: expiresAt,
	}
	b.mu.Unlock()

	return nil
}

// Delete removes a key.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.items, key)
	b.mu.Unlock()
	return nil
}

// cleanupExpired runs periodically to remove expired entries.
func (b *MemoryBackend) cleanupExpired() {
	ticker := time.NewTicker(b.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			b.mu.Lock()
			for k, v := range b.items {
				if v.expired(now) {
					delete(b.items, k)
				}
			}
			b.mu.Unlock()
		case <-b.stopCleanup:
			return
		}
	}
}

// Close stops the janitor goroutine. Call on shutdown or in tests.
func (b *MemoryBackend) Close() error {
	b.cleanupOnce.Do(func() {
		close(b.stopCleanup)
	})
	return nil
}

// Len returns the number of items currently stored.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}
