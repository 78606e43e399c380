// Package app assembles the pricing engine from configuration.
// Both the server and the CLI build the same component graph.
package app

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jewelcost/core/cache"
	"jewelcost/core/labor"
	"jewelcost/core/metals"
	"jewelcost/core/pricing"
	"jewelcost/core/rates"
	"jewelcost/internal/config"
	"jewelcost/internal/logging"
)

// Engine holds the wired pricing components.
type Engine struct {
	Config     *config.Config
	Table      *rates.Table
	Backend    cache.Backend
	PriceCache *cache.PriceCache[metals.RawPrices]
	Metals     *metals.Source
	Labor      *labor.Estimator
	Calculator *pricing.Calculator

	redisClient *redis.Client
}

// Build wires the engine from configuration. The AI estimation path is
// optional: when the provider endpoint or key is missing the estimator
// runs rule-based only.
func Build(cfg *config.Config) (*Engine, error) {
	logger := logging.Logger

	table := rates.Default()
	if cfg.Pricing.RatesFile != "" {
		t, err := rates.Load(cfg.Pricing.RatesFile)
		if err != nil {
			return nil, fmt.Errorf("loading rates file %s: %w", cfg.Pricing.RatesFile, err)
		}
		table = t
	}

	var redisClient *redis.Client
	if cfg.Cache.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
	}

	backend := cache.NewBackend(cache.Config{
		Backend:         cfg.Cache.Backend,
		Prefix:          cfg.Cache.KeyPrefix,
		CleanupInterval: time.Duration(cfg.Cache.CleanupIntervalSeconds) * time.Second,
	}, redisClient)

	priceCache := cache.New[metals.RawPrices](backend, logger)

	var fetcher metals.Fetcher
	if cfg.Metals.FeedURL != "" {
		fetcher = metals.NewHTTPFetcher(
			cfg.Metals.FeedURL,
			time.Duration(cfg.Metals.TimeoutSeconds)*time.Second,
			logger,
		)
	} else {
		fetcher = &metals.StaticFetcher{Err: fmt.Errorf("no metal price feed configured")}
	}

	metalSource := metals.NewSource(
		priceCache,
		fetcher,
		time.Duration(cfg.Metals.CacheTTLSeconds)*time.Second,
		table.MetalDefaults,
		logger,
	)

	var aiClient labor.AIClient
	client, err := labor.NewHTTPClient(labor.HTTPClientConfig{
		BaseURL:    cfg.Labor.BaseURL,
		APIKey:     cfg.Labor.APIKey(),
		Model:      cfg.Labor.Model,
		Timeout:    time.Duration(cfg.Labor.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Labor.MaxRetries,
	}, logger)
	if err != nil {
		logger.Info("ai labor estimation disabled", zap.String("reason", err.Error()))
	} else {
		aiClient = client
	}

	estimator := labor.NewEstimator(aiClient, table, logger)
	calc := pricing.NewCalculator(metalSource, estimator, table, logger)

	return &Engine{
		Config:      cfg,
		Table:       table,
		Backend:     backend,
		PriceCache:  priceCache,
		Metals:      metalSource,
		Labor:       estimator,
		Calculator:  calc,
		redisClient: redisClient,
	}, nil
}

// Close releases backend resources.
func (e *Engine) Close() error {
	if mb, ok := e.Backend.(*cache.MemoryBackend); ok {
		mb.Close()
	}
	if e.redisClient != nil {
		return e.redisClient.Close()
	}
	return nil
}
