package infra

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent identifies the scanner to the market-data service, as
	// its terms of use ask for.
	DefaultUserAgent = "flipscan/1.0"

	// DefaultMarketTTLSec keeps cached market orders for 15 minutes.
	DefaultMarketTTLSec = 900
)

// Config holds all application settings. Loaded from YAML first, then
// overridden from the environment where an env tag is present.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		ESI struct {
			BaseURL    string `yaml:"base_url" env:"FLIPSCAN_ESI_BASE_URL"`
			Datasource string `yaml:"datasource" env:"FLIPSCAN_ESI_DATASOURCE"`
			RegionID   int32  `yaml:"region_id" env:"FLIPSCAN_REGION_ID"`
			TimeoutSec int    `yaml:"timeout_sec"`
		} `yaml:"esi"`
	} `yaml:"api"`

	Trade struct {
		MaxCapital    decimal.Decimal `yaml:"max_capital" env:"FLIPSCAN_MAX_CAPITAL"`
		CargoCapacity decimal.Decimal `yaml:"cargo_capacity" env:"FLIPSCAN_CARGO_CAPACITY"`
	} `yaml:"trade"`

	Cache struct {
		Dir          string `yaml:"dir" env:"FLIPSCAN_CACHE_DIR"`
		MarketTTLSec int    `yaml:"market_ttl_sec" env:"FLIPSCAN_MARKET_TTL_SEC"`
	} `yaml:"cache"`

	Logging struct {
		Level string `yaml:"level" env:"FLIPSCAN_LOG_LEVEL"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.ESI.Datasource == "" {
		c.API.ESI.Datasource = "tranquility"
	}
	if c.API.ESI.TimeoutSec <= 0 {
		c.API.ESI.TimeoutSec = 10
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "data"
	}
	if c.Cache.MarketTTLSec <= 0 {
		c.Cache.MarketTTLSec = DefaultMarketTTLSec
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !hasPrefix(c.API.ESI.BaseURL, "http://") && !hasPrefix(c.API.ESI.BaseURL, "https://") {
		return fmt.Errorf("invalid ESI base URL: %s", c.API.ESI.BaseURL)
	}
	if c.API.ESI.RegionID <= 0 {
		return fmt.Errorf("region id is required")
	}
	if !c.Trade.MaxCapital.IsPositive() {
		return fmt.Errorf("max capital must be positive")
	}
	if !c.Trade.CargoCapacity.IsPositive() {
		return fmt.Errorf("cargo capacity must be positive")
	}
	return nil
}

// MarketTTL is the time-to-live of the persisted market-order cache.
func (c *Config) MarketTTL() time.Duration {
	return time.Duration(c.Cache.MarketTTLSec) * time.Second
}

// ESITimeout is the per-request timeout for the market-data client.
func (c *Config) ESITimeout() time.Duration {
	return time.Duration(c.API.ESI.TimeoutSec) * time.Second
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}
