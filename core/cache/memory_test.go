// Package cache - Memory backend tests
package cache

import (
	"context"
	"testing"
	"time"
)

// TestMemoryBackendRoundtrip covers set, get and delete
func TestMemoryBackendRoundtrip(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(time.Minute)
	defer b.Close()

	if err := b.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, ok, err := b.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(v) != "v" {
		t.Errorf("got %q, want %q", v, "v")
	}

	if err := b.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Error("deleted key still present")
	}
}

// TestMemoryBackendExpiry proves an expired entry reads as absent
func TestMemoryBackendExpiry(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(time.Minute)
	defer b.Close()

	if err := b.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	time.Sleep(25 * time.Millisecond)

	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Error("expired entry served")
	}
	if n := b.Len(); n != 0 {
		t.Errorf("Len = %d after lazy eviction, want 0", n)
	}
}

// TestMemoryBackendZeroTTLNeverExpires proves the fallback tier
// contract: no expiry at ttl <= 0
func TestMemoryBackendZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(time.Minute)
	defer b.Close()

	if err := b.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := b.Get(ctx, "k"); !ok {
		t.Error("no-expiry entry vanished")
	}
}

// TestMemoryBackendCopiesValue proves callers cannot mutate stored
// bytes after the fact
func TestMemoryBackendCopiesValue(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(time.Minute)
	defer b.Close()

	buf := []byte("abc")
	if err := b.Set(ctx, "k", buf, 0); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'z'

	v, _, _ := b.Get(ctx, "k")
	if string(v) != "abc" {
		t.Errorf("stored value mutated: %q", v)
	}
}

// TestNewBackendFactory checks the backend selection
func TestNewBackendFactory(t *testing.T) {
	b := NewBackend(Config{Backend: "memory", CleanupInterval: time.Minute}, nil)
	mb, ok := b.(*MemoryBackend)
	if !ok {
		t.Fatalf("expected memory backend, got %T", b)
	}
	mb.Close()

	// unknown backend falls back to memory
	b = NewBackend(Config{Backend: ""}, nil)
	mb, ok = b.(*MemoryBackend)
	if !ok {
		t.Fatalf("expected memory backend for empty selector, got %T", b)
	}
	mb.Close()
}
