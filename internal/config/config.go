package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultHTTPPort               = 8080
	defaultRedisURL               = "localhost:6379"
	defaultPriceCacheTTLSecs      = 300
	defaultPriceUpdateCron        = "*/5 * * * *"
	defaultPriceRefreshDelayMs    = 2000
	defaultRetryMaxAttempts       = 3
	defaultRetryBaseDelayMs       = 2000
	defaultRetryMaxDelayMs        = 30000
	defaultProviderTimeoutSecs    = 30
	defaultProviderRequestsPerMin = 30
	defaultAssetListPath          = "data/chain-registry/namada/assetlist.json"
)

type Config struct {
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	APIKey   string `envconfig:"API_KEY"`
	RedisURL string `envconfig:"REDIS_URL" default:"localhost:6379"`

	PriceCacheTTLSecs   int    `envconfig:"PRICE_CACHE_TTL" default:"300"`
	PriceUpdateCron     string `envconfig:"PRICE_UPDATE_INTERVAL" default:"*/5 * * * *"`
	PriceRefreshDelayMs int    `envconfig:"PRICE_REFRESH_DELAY_MS" default:"2000"`
	RetryMaxAttempts    int    `envconfig:"PRICE_RETRY_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelayMs    int    `envconfig:"PRICE_RETRY_BASE_DELAY_MS" default:"2000"`
	RetryMaxDelayMs     int    `envconfig:"PRICE_RETRY_MAX_DELAY_MS" default:"30000"`

	CMCAPIKey        string `envconfig:"CMC_API_KEY"`
	CMCBaseURL       string `envconfig:"CMC_BASE_URL"`
	CoinGeckoAPIKey  string `envconfig:"COINGECKO_API_KEY"`
	CoinGeckoBaseURL string `envconfig:"COINGECKO_BASE_URL"`

	ProviderTimeoutSecs    int `envconfig:"PROVIDER_TIMEOUT_SECS" default:"30"`
	ProviderRequestsPerMin int `envconfig:"PROVIDER_REQUESTS_PER_MIN" default:"30"`

	AssetListPath    string `envconfig:"ASSET_LIST_PATH" default:"data/chain-registry/namada/assetlist.json"`
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
}

// Load reads the configuration from the environment. Values that parse but
// are out of range fall back to their defaults with a warning.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	if cfg.RedisURL == "" {
		log.Printf("Warning: REDIS_URL not set, defaulting to %s", defaultRedisURL)
		cfg.RedisURL = defaultRedisURL
	}

	cfg.PriceUpdateCron = strings.TrimSpace(cfg.PriceUpdateCron)
	if cfg.PriceUpdateCron == "" {
		cfg.PriceUpdateCron = defaultPriceUpdateCron
	}

	cfg.AssetListPath = strings.TrimSpace(cfg.AssetListPath)
	if cfg.AssetListPath == "" {
		cfg.AssetListPath = defaultAssetListPath
	}

	positive(&cfg.HTTPPort, "HTTP_PORT", defaultHTTPPort)
	positive(&cfg.PriceCacheTTLSecs, "PRICE_CACHE_TTL", defaultPriceCacheTTLSecs)
	positive(&cfg.RetryMaxAttempts, "PRICE_RETRY_MAX_ATTEMPTS", defaultRetryMaxAttempts)
	positive(&cfg.RetryBaseDelayMs, "PRICE_RETRY_BASE_DELAY_MS", defaultRetryBaseDelayMs)
	positive(&cfg.RetryMaxDelayMs, "PRICE_RETRY_MAX_DELAY_MS", defaultRetryMaxDelayMs)
	positive(&cfg.ProviderTimeoutSecs, "PROVIDER_TIMEOUT_SECS", defaultProviderTimeoutSecs)
	positive(&cfg.ProviderRequestsPerMin, "PROVIDER_REQUESTS_PER_MIN", defaultProviderRequestsPerMin)

	if cfg.PriceRefreshDelayMs < 0 {
		log.Printf("Warning: invalid PRICE_REFRESH_DELAY_MS=%d, defaulting to %d", cfg.PriceRefreshDelayMs, defaultPriceRefreshDelayMs)
		cfg.PriceRefreshDelayMs = defaultPriceRefreshDelayMs
	}

	if cfg.CMCAPIKey == "" {
		log.Println("Warning: CMC_API_KEY not set, CoinMarketCap lookups disabled")
	}
	if cfg.CoinGeckoAPIKey == "" {
		log.Println("Warning: COINGECKO_API_KEY not set, CoinGecko lookups disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	return &cfg, nil
}

func positive(v *int, key string, def int) {
	if *v <= 0 {
		log.Printf("Warning: invalid %s=%d, defaulting to %d", key, *v, def)
		*v = def
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) PriceCacheTTL() time.Duration {
	return time.Duration(c.PriceCacheTTLSecs) * time.Second
}

func (c *Config) PriceRefreshDelay() time.Duration {
	return time.Duration(c.PriceRefreshDelayMs) * time.Millisecond
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSecs) * time.Second
}
