package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Vision    VisionConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	Boost     BoostConfig
	Store     StoreConfig
	Analytics AnalyticsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// VisionConfig holds vision model configuration
type VisionConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds marketplace search configuration.
// Source selects the backend: "shopify", "amazon", or "all" (blended).
type CatalogConfig struct {
	Source  string            `mapstructure:"source"`
	Shopify MarketplaceConfig `mapstructure:"shopify"`
	Amazon  MarketplaceConfig `mapstructure:"amazon"`
	Timeout time.Duration     `mapstructure:"timeout"`
	MemoTTL time.Duration     `mapstructure:"memo_ttl"`
}

// MarketplaceConfig holds per-marketplace API access configuration
type MarketplaceConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	AccessToken string  `mapstructure:"access_token"`
	RatePerSec  float64 `mapstructure:"rate_per_sec"`
}

// CacheConfig holds frame cache configuration
type CacheConfig struct {
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
}

// BoostConfig holds engagement boost configuration
type BoostConfig struct {
	LookbackWindow time.Duration `mapstructure:"lookback_window"`
	MinImpressions int           `mapstructure:"min_impressions"`
}

// StoreConfig holds key-value store configuration
type StoreConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// AnalyticsConfig holds analytics sink configuration
type AnalyticsConfig struct {
	AmplitudeAPIKey string `mapstructure:"amplitude_api_key"`
	AppEnv          string `mapstructure:"app_env"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shopframe/")

	// Environment variable settings
	v.SetEnvPrefix("SHOPFRAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})
	v.SetDefault("server.max_upload_bytes", int64(10*1024*1024)) // 10MB

	// Vision defaults
	v.SetDefault("vision.model", "gpt-4o")
	v.SetDefault("vision.timeout", "30s")

	// Catalog defaults
	v.SetDefault("catalog.source", "shopify")
	v.SetDefault("catalog.timeout", "15s")
	v.SetDefault("catalog.memo_ttl", "5m")
	v.SetDefault("catalog.shopify.rate_per_sec", 2.0)
	v.SetDefault("catalog.amazon.rate_per_sec", 1.0)

	// Cache defaults
	v.SetDefault("cache.freshness_window", "24h")

	// Boost defaults
	v.SetDefault("boost.lookback_window", "720h") // 30 days
	v.SetDefault("boost.min_impressions", 5)

	// Store defaults
	v.SetDefault("store.path", "./data/shopframe")
	v.SetDefault("store.in_memory", false)

	// Analytics defaults
	v.SetDefault("analytics.app_env", "development")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Vision.APIKey == "" {
		return fmt.Errorf("vision API key is required (set SHOPFRAME_VISION_API_KEY)")
	}

	switch config.Catalog.Source {
	case "shopify", "amazon", "all":
	default:
		return fmt.Errorf("catalog source must be 'shopify', 'amazon' or 'all', got: %s", config.Catalog.Source)
	}

	if config.Cache.FreshnessWindow <= 0 {
		return fmt.Errorf("cache freshness window must be positive, got: %s", config.Cache.FreshnessWindow)
	}

	if config.Boost.LookbackWindow <= 0 {
		return fmt.Errorf("boost lookback window must be positive, got: %s", config.Boost.LookbackWindow)
	}

	if config.Boost.MinImpressions < 1 {
		return fmt.Errorf("boost min impressions must be at least 1, got: %d", config.Boost.MinImpressions)
	}

	if !config.Store.InMemory && config.Store.Path == "" {
		return fmt.Errorf("store path is required when not running in-memory")
	}

	return nil
}
