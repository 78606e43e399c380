// Package metals - Metal price source tests
package metals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"jewelcost/core/cache"
	"jewelcost/core/rates"
)

func newTestSource(t *testing.T, fetcher Fetcher) *Source {
	t.Helper()
	backend := cache.NewMemoryBackend(time.Minute)
	t.Cleanup(func() { backend.Close() })

	pc := cache.New[RawPrices](backend, nil)
	return NewSource(pc, fetcher, time.Hour, rates.Default().MetalDefaults, nil)
}

// TestKaratPriceDerivation proves karat prices are exact fractions of
// the 24k price
func TestKaratPriceDerivation(t *testing.T) {
	base := decimal.NewFromInt(280)

	if got := KaratPrice(base, 18).String(); got != "210" {
		t.Errorf("18k price = %s, want 210", got)
	}
	if got := KaratPrice(base, 14).String(); got != "163.3333333333333333" {
		t.Errorf("14k price = %s, want 163.3333...", got)
	}
	if got := KaratPrice(base, 24); !got.Equal(base) {
		t.Errorf("24k price = %s, want %s", got, base)
	}
}

// TestKaratDerivationIdempotent proves repeated reads of the same raw
// table derive identical karat prices
func TestKaratDerivationIdempotent(t *testing.T) {
	raw := RawPrices{
		Gold24K:  decimal.RequireFromString("287.4"),
		Silver:   decimal.RequireFromString("3.6"),
		Platinum: decimal.NewFromInt(118),
	}

	a := derive(raw, "cached")
	b := derive(raw, "cached")

	if !a.Gold18K.Equal(b.Gold18K) || !a.Gold14K.Equal(b.Gold14K) {
		t.Errorf("derivation not idempotent: %v vs %v", a, b)
	}
}

// TestPricesSafeLiveThenCached proves the source fetches once and
// serves from cache inside the TTL
func TestPricesSafeLiveThenCached(t *testing.T) {
	ctx := context.Background()
	s := newTestSource(t, StaticFetcher{Prices: RawPrices{
		Gold24K:   decimal.NewFromInt(300),
		Silver:    decimal.NewFromInt(4),
		Platinum:  decimal.NewFromInt(120),
		FetchedAt: time.Now().UTC(),
	}})

	p := s.PricesSafe(ctx)
	if p.Source != string(cache.OriginLive) {
		t.Errorf("first read source = %s, want live", p.Source)
	}
	if got := p.Gold18K.String(); got != "225" {
		t.Errorf("18k = %s, want 225", got)
	}

	p = s.PricesSafe(ctx)
	if p.Source != string(cache.OriginCached) {
		t.Errorf("second read source = %s, want cached", p.Source)
	}

	fresh, remaining := s.Fresh(ctx)
	if !fresh {
		t.Error("Fresh = false right after a live fetch")
	}
	if remaining <= 0 {
		t.Errorf("remaining TTL = %v, want positive", remaining)
	}
}

// TestPricesSafeDegradesToDefaults proves a cold cache plus a dead
// feed still yields a complete price table, tagged fallback
func TestPricesSafeDegradesToDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestSource(t, StaticFetcher{Err: errors.New("feed down")})

	p := s.PricesSafe(ctx)
	if p.Source != string(cache.OriginFallback) {
		t.Errorf("source = %s, want fallback", p.Source)
	}
	if got := p.Gold24K.String(); got != "280" {
		t.Errorf("default 24k = %s, want 280", got)
	}
	if got := p.Gold18K.String(); got != "210" {
		t.Errorf("derived 18k from defaults = %s, want 210", got)
	}
	if p.Silver.IsZero() || p.Platinum.IsZero() {
		t.Error("default table incomplete")
	}
}

// TestRefreshReportsFailure proves the administrative refresh path
// surfaces the error PricesSafe hides
func TestRefreshReportsFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestSource(t, StaticFetcher{Err: errors.New("feed down")})

	if _, err := s.Refresh(ctx); err == nil {
		t.Fatal("expected error from refresh with a dead feed")
	}
}

// TestMaterialPrice covers the material switch, including the derived
// karat entries
func TestMaterialPrice(t *testing.T) {
	p := derive(RawPrices{
		Gold24K:  decimal.NewFromInt(240),
		Silver:   decimal.NewFromInt(4),
		Platinum: decimal.NewFromInt(120),
	}, "live")

	cases := []struct {
		material Material
		want     string
	}{
		{Gold24K, "240"},
		{Gold18K, "180"},
		{Gold14K, "140"},
		{Silver, "4"},
		{Platinum, "120"},
	}
	for _, c := range cases {
		got, err := MaterialPrice(p, c.material)
		if err != nil {
			t.Fatalf("MaterialPrice(%s): %v", c.material, err)
		}
		if got.String() != c.want {
			t.Errorf("MaterialPrice(%s) = %s, want %s", c.material, got, c.want)
		}
	}

	if _, err := MaterialPrice(p, Material("mithril")); err == nil {
		t.Error("expected error for unknown material")
	}
}

// TestHTTPFetcher exercises the feed client against a local server
func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{
			"gold_24k": 290.5,
			"silver":   3.8,
			"platinum": 117,
		})
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, 2*time.Second, nil)
	raw, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := raw.Gold24K.String(); got != "290.5" {
		t.Errorf("gold_24k = %s, want 290.5", got)
	}
	if raw.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

// TestHTTPFetcherRejectsNonPositive proves a nonsense feed is an error
func TestHTTPFetcherRejectsNonPositive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{
			"gold_24k": 0,
			"silver":   3.8,
			"platinum": 117,
		})
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, 2*time.Second, nil)
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-positive prices")
	}
}
