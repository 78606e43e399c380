// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"jewelcost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Cache contains price-cache configuration
	Cache CacheConfig `json:"cache"`

	// Metals contains metal price feed configuration
	Metals MetalsConfig `json:"metals"`

	// Labor contains labor estimator configuration
	Labor LaborConfig `json:"labor"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`

	// RequestTimeoutSeconds bounds each request
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	// AdminTokenEnv names the environment variable holding the
	// shared secret for administrative endpoints
	AdminTokenEnv string `json:"admin_token_env"`
}

// CacheConfig contains price-cache settings
type CacheConfig struct {
	// Backend selects the cache backend (memory, redis)
	Backend string `json:"backend"`

	// RedisAddr is the redis address when Backend is "redis"
	RedisAddr string `json:"redis_addr"`

	// RedisDB is the redis database number
	RedisDB int `json:"redis_db"`

	// KeyPrefix namespaces cache keys
	KeyPrefix string `json:"key_prefix"`

	// CleanupIntervalSeconds is the memory-backend janitor interval
	CleanupIntervalSeconds int `json:"cleanup_interval_seconds"`
}

// MetalsConfig contains metal price feed settings
type MetalsConfig struct {
	// FeedURL is the live price feed endpoint
	FeedURL string `json:"feed_url"`

	// TimeoutSeconds bounds a single feed request
	TimeoutSeconds int `json:"timeout_seconds"`

	// CacheTTLSeconds is how long fetched prices stay fresh
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
}

// LaborConfig contains AI labor estimator settings
type LaborConfig struct {
	// BaseURL is the estimation provider endpoint
	BaseURL string `json:"base_url"`

	// APIKeyEnv names the environment variable holding the API key
	APIKeyEnv string `json:"api_key_env"`

	// Model is the provider model identifier
	Model string `json:"model"`

	// TimeoutSeconds bounds a single estimation request
	TimeoutSeconds int `json:"timeout_seconds"`

	// MaxRetries is the retry budget for transient failures
	MaxRetries int `json:"max_retries"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// Currency is the settlement currency
	Currency string `json:"currency"`

	// RatesFile is an optional HCL rate-table override file
	RatesFile string `json:"rates_file,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr:                  ":8080",
			RequestTimeoutSeconds: 30,
			AdminTokenEnv:         "JEWELCOST_ADMIN_TOKEN",
		},
		Cache: CacheConfig{
			Backend:                "memory",
			KeyPrefix:              "jewelcost",
			CleanupIntervalSeconds: 300,
		},
		Metals: MetalsConfig{
			TimeoutSeconds:  10,
			CacheTTLSeconds: 3600, // 1 hour
		},
		Labor: LaborConfig{
			APIKeyEnv:      "JEWELCOST_AI_API_KEY",
			TimeoutSeconds: 20,
			MaxRetries:     2,
		},
		Pricing: PricingConfig{
			Currency: "ILS",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// APIKey resolves the AI provider key from the environment
func (l LaborConfig) APIKey() string {
	if l.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(l.APIKeyEnv)
}

// AdminToken resolves the administrative shared secret
func (c *Config) AdminToken() string {
	if c.Server.AdminTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Server.AdminTokenEnv)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
