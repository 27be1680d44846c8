// Package config loads and validates the application configuration from
// config.yaml and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sentineliq/harvester/internal/database"
	"github.com/sentineliq/harvester/internal/dedup"
	"github.com/sentineliq/harvester/internal/logger"
	"github.com/sentineliq/harvester/internal/ratelimit"
)

// envPrefix namespaces environment variable overrides, e.g.
// HARVESTER_DATABASE_HOST overrides database.host.
const envPrefix = "HARVESTER"

// Crawler defaults.
const (
	defaultUserAgent      = "SentinelIQ-Harvester/1.0"
	defaultMaxConcurrent  = 10
	defaultBatchSize      = 20
	defaultBatchPause     = 2 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 5 * 1024 * 1024
	defaultMaxPages       = 50
	defaultRobotsTTL      = time.Hour
)

// CrawlerConfig holds crawl run settings.
type CrawlerConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	BatchSize      int           `mapstructure:"batch_size"`
	BatchPause     time.Duration `mapstructure:"batch_pause"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	MaxPages       int           `mapstructure:"max_pages"`
	RobotsCacheTTL time.Duration `mapstructure:"robots_cache_ttl"`
}

// DedupConfig holds duplicate detection settings.
type DedupConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	MinContentLength    int     `mapstructure:"min_content_length"`
	WarmWindowDays      int     `mapstructure:"warm_window_days"`
	CacheCapacity       int     `mapstructure:"cache_capacity"`
}

// RateLimitConfig holds adaptive rate limiter settings.
type RateLimitConfig struct {
	InitialRate  float64       `mapstructure:"initial_rate"`
	MinRate      float64       `mapstructure:"min_rate"`
	MaxRate      float64       `mapstructure:"max_rate"`
	InitialBurst int           `mapstructure:"initial_burst"`
	MaxBurst     int           `mapstructure:"max_burst"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MinDelay     time.Duration `mapstructure:"min_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
}

// Config is the unified application configuration.
type Config struct {
	Database  database.Config `mapstructure:"database"`
	Logger    logger.Config   `mapstructure:"logger"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// Load reads configuration from the given file path (optional) and the
// environment, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if readErr := v.ReadInConfig(); readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config
	if unmarshalErr := v.Unmarshal(&cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// setDefaults registers defaults for every configuration key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "harvester")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "harvester")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.development", false)

	v.SetDefault("crawler.user_agent", defaultUserAgent)
	v.SetDefault("crawler.max_concurrent", defaultMaxConcurrent)
	v.SetDefault("crawler.batch_size", defaultBatchSize)
	v.SetDefault("crawler.batch_pause", defaultBatchPause)
	v.SetDefault("crawler.request_timeout", defaultRequestTimeout)
	v.SetDefault("crawler.max_body_bytes", defaultMaxBodyBytes)
	v.SetDefault("crawler.max_pages", defaultMaxPages)
	v.SetDefault("crawler.robots_cache_ttl", defaultRobotsTTL)

	v.SetDefault("dedup.similarity_threshold", dedup.DefaultSimilarityThreshold)
	v.SetDefault("dedup.min_content_length", dedup.DefaultMinContentLength)
	v.SetDefault("dedup.warm_window_days", dedup.DefaultWarmWindowDays)
	v.SetDefault("dedup.cache_capacity", dedup.DefaultCacheCapacity)

	limiterDefaults := ratelimit.DefaultConfig()
	v.SetDefault("rate_limit.initial_rate", limiterDefaults.InitialRate)
	v.SetDefault("rate_limit.min_rate", limiterDefaults.MinRate)
	v.SetDefault("rate_limit.max_rate", limiterDefaults.MaxRate)
	v.SetDefault("rate_limit.initial_burst", limiterDefaults.InitialBurst)
	v.SetDefault("rate_limit.max_burst", limiterDefaults.MaxBurst)
	v.SetDefault("rate_limit.initial_delay", limiterDefaults.InitialDelay)
	v.SetDefault("rate_limit.min_delay", limiterDefaults.MinDelay)
	v.SetDefault("rate_limit.max_delay", limiterDefaults.MaxDelay)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Crawler.UserAgent == "" {
		return errors.New("config: crawler.user_agent must not be empty")
	}
	if c.Crawler.MaxConcurrent <= 0 {
		return errors.New("config: crawler.max_concurrent must be positive")
	}
	if c.Crawler.BatchSize <= 0 {
		return errors.New("config: crawler.batch_size must be positive")
	}
	if c.RateLimit.MinRate <= 0 || c.RateLimit.MaxRate < c.RateLimit.MinRate {
		return errors.New("config: rate_limit bounds are inconsistent")
	}
	if c.Dedup.SimilarityThreshold <= 0 || c.Dedup.SimilarityThreshold > 1 {
		return errors.New("config: dedup.similarity_threshold must be in (0, 1]")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("config: database host and dbname are required")
	}

	return nil
}

// RateLimiterConfig converts the rate limit section to the limiter's config.
func (c *Config) RateLimiterConfig() ratelimit.Config {
	return ratelimit.Config{
		InitialRate:  c.RateLimit.InitialRate,
		MinRate:      c.RateLimit.MinRate,
		MaxRate:      c.RateLimit.MaxRate,
		InitialBurst: c.RateLimit.InitialBurst,
		MaxBurst:     c.RateLimit.MaxBurst,
		InitialDelay: c.RateLimit.InitialDelay,
		MinDelay:     c.RateLimit.MinDelay,
		MaxDelay:     c.RateLimit.MaxDelay,
	}
}

// DedupIndexConfig converts the dedup section to the index's config.
func (c *Config) DedupIndexConfig() dedup.Config {
	return dedup.Config{
		SimilarityThreshold: c.Dedup.SimilarityThreshold,
		MinContentLength:    c.Dedup.MinContentLength,
		WarmWindowDays:      c.Dedup.WarmWindowDays,
		CacheCapacity:       c.Dedup.CacheCapacity,
	}
}
