// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hydavinci/formula-1-schedule/internal/logging"
)

// Cache backends.
const (
	BackendMemory   = "memory"
	BackendLocal    = "local"
	BackendGCS      = "gcs"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Tool server transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Cache    CacheConfig    `mapstructure:"cache"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  logging.Config `mapstructure:"logging"`
}

// ServerConfig controls the HTTP API and the tool server.
type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	Transport      string `mapstructure:"transport"`
	RequestTimeout int    `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures outbound requests.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// SourcesConfig points the adapters at their upstreams.
type SourcesConfig struct {
	ErgastBaseURL    string `mapstructure:"ergast_base_url"`
	Formula1BaseURL  string `mapstructure:"formula1_base_url"`
	Formula1Disabled bool   `mapstructure:"formula1_disabled"`
}

// ScrapeConfig governs detail-page enrichment and politeness.
type ScrapeConfig struct {
	MaxWorkers         int     `mapstructure:"max_workers"`
	RatePerSecond      float64 `mapstructure:"rate_per_second"`
	Burst              int     `mapstructure:"burst"`
	Headless           bool    `mapstructure:"headless"`
	NavTimeoutSeconds  int     `mapstructure:"nav_timeout_seconds"`
	PromotionThreshold int     `mapstructure:"promotion_threshold"`
}

// FallbackConfig sets how many earlier seasons a calendar query may try.
type FallbackConfig struct {
	MaxYears int `mapstructure:"max_years"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string                   `mapstructure:"backend"`
	Dir           string                   `mapstructure:"dir"`
	GCSBucket     string                   `mapstructure:"gcs_bucket"`
	Prefix        string                   `mapstructure:"prefix"`
	PostgresDSN   string                   `mapstructure:"postgres_dsn"`
	PostgresTable string                   `mapstructure:"postgres_table"`
	RedisAddr     string                   `mapstructure:"redis_addr"`
	RedisPassword string                   `mapstructure:"redis_password"`
	RedisDB       int                      `mapstructure:"redis_db"`
	TTL           map[string]time.Duration `mapstructure:"ttl"`
}

// PubSubConfig holds metadata for acquisition notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment. Environment variables use the
// F1_ prefix (F1_CACHE_BACKEND); PORT overrides server.port.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("F1")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse PORT %q: %w", raw, err)
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (compatible; f1schedule/1.0)")
	v.SetDefault("sources.ergast_base_url", "http://ergast.com/api/f1")
	v.SetDefault("sources.formula1_base_url", "https://www.formula1.com")
	v.SetDefault("sources.formula1_disabled", false)
	v.SetDefault("scrape.max_workers", 5)
	v.SetDefault("scrape.rate_per_second", 2.0)
	v.SetDefault("scrape.burst", 5)
	v.SetDefault("scrape.headless", false)
	v.SetDefault("scrape.nav_timeout_seconds", 25)
	v.SetDefault("scrape.promotion_threshold", 2048)
	v.SetDefault("fallback.max_years", 3)
	v.SetDefault("cache.backend", BackendLocal)
	v.SetDefault("cache.dir", ".cache")
	v.SetDefault("cache.prefix", "f1cache")
	v.SetDefault("cache.postgres_table", "f1_cache")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("server.transport must be %q or %q", TransportStdio, TransportHTTP)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Scrape.MaxWorkers <= 0 {
		return fmt.Errorf("scrape.max_workers must be > 0")
	}
	if c.Scrape.RatePerSecond < 0 {
		return fmt.Errorf("scrape.rate_per_second must be >= 0")
	}
	if c.Scrape.Headless && c.Scrape.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("scrape.nav_timeout_seconds must be > 0 when headless is enabled")
	}
	if c.Fallback.MaxYears < 0 {
		return fmt.Errorf("fallback.max_years must be >= 0")
	}
	return c.Cache.validate()
}

func (c CacheConfig) validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendLocal:
		if c.Dir == "" {
			return fmt.Errorf("cache.dir is required for the local backend")
		}
	case BackendGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("cache.gcs_bucket is required for the gcs backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("cache.postgres_dsn is required for the postgres backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Backend)
	}
	for source, ttl := range c.TTL {
		if ttl < 0 {
			return fmt.Errorf("cache.ttl.%s must be >= 0", source)
		}
	}
	return nil
}

// Timeout is the per-request timeout for outbound calls.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RequestTimeout bounds one inbound API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}
