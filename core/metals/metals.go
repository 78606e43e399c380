// Package metals - Precious metal price source
// Serves per-gram prices in ILS through the two-tier price cache.
// Pricing must never hard-fail because a metals feed is down.
package metals

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jewelcost/core/cache"
	"jewelcost/core/rates"
	"jewelcost/internal/errors"
	"jewelcost/internal/metrics"
)

// Material identifies a priced material.
type Material string

const (
	Gold24K  Material = "gold_24k"
	Gold18K  Material = "gold_18k"
	Gold14K  Material = "gold_14k"
	Silver   Material = "silver"
	Platinum Material = "platinum"
)

// cacheKey is the single cache key for the metals table.
const cacheKey = "metal_prices"

// RawPrices is what a live feed produces: base per-gram prices in
// ILS. Karat prices are never fetched or cached, only derived.
type RawPrices struct {
	Gold24K   decimal.Decimal `json:"gold_24k"`
	Silver    decimal.Decimal `json:"silver"`
	Platinum  decimal.Decimal `json:"platinum"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Prices is the full per-gram price table handed to the calculator.
// Gold18K and Gold14K are computed from Gold24K at read time using
// the exact karat ratios 18/24 and 14/24.
type Prices struct {
	Gold24K  decimal.Decimal `json:"gold_24k"`
	Gold18K  decimal.Decimal `json:"gold_18k"`
	Gold14K  decimal.Decimal `json:"gold_14k"`
	Silver   decimal.Decimal `json:"silver"`
	Platinum decimal.Decimal `json:"platinum"`

	// Source is live, cached or fallback
	Source string `json:"source"`

	// Timestamp is when the underlying table was obtained
	Timestamp time.Time `json:"timestamp"`
}

// Fetcher produces a live price table. The transport is opaque to the
// engine; timeouts belong to the implementation.
type Fetcher interface {
	Fetch(ctx context.Context) (RawPrices, error)
}

// Source resolves metal prices through the price cache.
type Source struct {
	cache    *cache.PriceCache[RawPrices]
	fetcher  Fetcher
	ttl      time.Duration
	defaults rates.MetalDefaults
	logger   *zap.Logger
}

// NewSource creates a metal price source. The cache is injected so
// tests can run with a fresh one.
func NewSource(c *cache.PriceCache[RawPrices], fetcher Fetcher, ttl time.Duration, defaults rates.MetalDefaults, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Source{
		cache:    c,
		fetcher:  fetcher,
		ttl:      ttl,
		defaults: defaults,
		logger:   logger,
	}
}

// PricesSafe resolves the current price table. Precedence: fresh
// cache, live fetch, fallback store, hardcoded defaults. It never
// returns an error; total failure degrades to the default table
// tagged "fallback".
func (s *Source) PricesSafe(ctx context.Context) Prices {
	raw, origin, err := s.cache.GetOrFetch(ctx, cacheKey, s.ttl, s.fetcher.Fetch)
	if err != nil {
		metrics.UpstreamFailuresTotal.WithLabelValues("metals").Inc()
		s.logger.Warn("metal prices unavailable, serving default table",
			zap.Error(err),
		)
		return derive(s.defaultRaw(), string(cache.OriginFallback))
	}
	return derive(raw, string(origin))
}

// Refresh forces a live fetch, bypassing the TTL check. Used by the
// administrative refresh path; unlike PricesSafe it reports failure.
func (s *Source) Refresh(ctx context.Context) (Prices, error) {
	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		metrics.UpstreamFailuresTotal.WithLabelValues("metals").Inc()
		return Prices{}, errors.Upstream("metal price refresh failed", err)
	}

	if err := s.cache.Set(ctx, cacheKey, raw, s.ttl); err != nil {
		s.logger.Warn("failed to cache refreshed metal prices", zap.Error(err))
	}

	return derive(raw, string(cache.OriginLive)), nil
}

// Fresh reports whether a fresh cached table exists, and how long it
// stays fresh. Used for live/cached/stale indicators.
func (s *Source) Fresh(ctx context.Context) (bool, time.Duration) {
	return s.cache.IsFresh(ctx, cacheKey), s.cache.RemainingTTL(ctx, cacheKey)
}

func (s *Source) defaultRaw() RawPrices {
	return RawPrices{
		Gold24K:   s.defaults.Gold24K,
		Silver:    s.defaults.Silver,
		Platinum:  s.defaults.Platinum,
		FetchedAt: time.Now().UTC(),
	}
}

// derive expands a raw table into the full price table, computing the
// karat prices from 24k.
func derive(raw RawPrices, source string) Prices {
	return Prices{
		Gold24K:   raw.Gold24K,
		Gold18K:   KaratPrice(raw.Gold24K, 18),
		Gold14K:   KaratPrice(raw.Gold24K, 14),
		Silver:    raw.Silver,
		Platinum:  raw.Platinum,
		Source:    source,
		Timestamp: raw.FetchedAt,
	}
}

// KaratPrice derives a per-gram price for a karat purity from the
// 24k price.
func KaratPrice(gold24k decimal.Decimal, karat int64) decimal.Decimal {
	return gold24k.Mul(decimal.NewFromInt(karat)).Div(decimal.NewFromInt(24))
}

// MaterialPrice maps a material key to its per-gram price. An unknown
// material is a programming error, not a fallback case.
func MaterialPrice(p Prices, material Material) (decimal.Decimal, error) {
	switch material {
	case Gold24K:
		return p.Gold24K, nil
	case Gold18K:
		return p.Gold18K, nil
	case Gold14K:
		return p.Gold14K, nil
	case Silver:
		return p.Silver, nil
	case Platinum:
		return p.Platinum, nil
	default:
		return decimal.Zero, errors.Inputf("unknown material: %s", material)
	}
}
