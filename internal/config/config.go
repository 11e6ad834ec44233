package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	PublishersFile string `mapstructure:"publishers_file"`

	HTTPBinURL   string `mapstructure:"httpbin_url"`
	PokeAPIURL   string `mapstructure:"pokeapi_url"`
	RickMortyURL string `mapstructure:"rmapi_url"`
	UserAgent    string `mapstructure:"user_agent"`

	RequestTimeoutMS int64         `mapstructure:"request_timeout_ms"`
	RequestTimeout   time.Duration `mapstructure:"-"`

	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseDelayMS  int64         `mapstructure:"retry_base_delay_ms"`
	RetryBaseDelay    time.Duration `mapstructure:"-"`
	RetryMaxDelayMS   int64         `mapstructure:"retry_max_delay_ms"`
	RetryMaxDelay     time.Duration `mapstructure:"-"`
	RetryJitter       float64       `mapstructure:"retry_jitter"`
	BackoffStrategy   string        `mapstructure:"backoff_strategy"`
	RetryServerErrors bool          `mapstructure:"retry_server_errors"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	UseAWS bool `mapstructure:"use_aws"`
	UseGCP bool `mapstructure:"use_gcp"`

	StorageType          string        `mapstructure:"storage_type"`
	BBoltPath            string        `mapstructure:"bbolt_path"`
	RedisAddr            string        `mapstructure:"redis_addr"`
	CacheTTLSeconds      int64         `mapstructure:"cache_ttl_seconds"`
	CacheCleanupSeconds  int64         `mapstructure:"cache_cleanup_interval_seconds"`
	CacheTTL             time.Duration `mapstructure:"-"`
	CacheCleanupInterval time.Duration `mapstructure:"-"`
}

var backoffStrategies = map[string]struct{}{
	"constant":    {},
	"linear":      {},
	"exponential": {},
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "api-mastery")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("publishers_file", "")
	v.SetDefault("httpbin_url", "http://localhost:8080")
	v.SetDefault("pokeapi_url", "https://pokeapi.co/api/v2")
	v.SetDefault("rmapi_url", "https://rickandmortyapi.com/api")
	v.SetDefault("user_agent", "")
	v.SetDefault("request_timeout_ms", 5000)
	v.SetDefault("max_retries", 2)
	v.SetDefault("retry_base_delay_ms", 200)
	v.SetDefault("retry_max_delay_ms", 0)
	v.SetDefault("retry_jitter", 0.0)
	v.SetDefault("backoff_strategy", "linear")
	v.SetDefault("retry_server_errors", false)
	v.SetDefault("rate_limit_rps", 0.0)
	v.SetDefault("rate_limit_burst", 1)
	v.SetDefault("use_aws", false)
	v.SetDefault("use_gcp", false)
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/cache.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("cache_ttl_seconds", 300)
	v.SetDefault("cache_cleanup_interval_seconds", 600)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RequestTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_ms (must be positive milliseconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMS) * time.Millisecond

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("invalid max_retries (must not be negative)")
	}
	if cfg.RetryBaseDelayMS < 0 || cfg.RetryMaxDelayMS < 0 {
		return nil, fmt.Errorf("invalid retry delay (must not be negative milliseconds)")
	}
	cfg.RetryBaseDelay = time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond
	cfg.RetryMaxDelay = time.Duration(cfg.RetryMaxDelayMS) * time.Millisecond

	cfg.BackoffStrategy = strings.ToLower(strings.TrimSpace(cfg.BackoffStrategy))
	if _, ok := backoffStrategies[cfg.BackoffStrategy]; !ok {
		return nil, fmt.Errorf("invalid backoff_strategy %q (want constant, linear or exponential)", cfg.BackoffStrategy)
	}
	if cfg.RetryJitter < 0 || cfg.RetryJitter > 1 {
		return nil, fmt.Errorf("invalid retry_jitter (must be between 0 and 1)")
	}
	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("invalid rate_limit_rps (must not be negative)")
	}

	if cfg.CacheTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid cache_ttl_seconds (must be positive seconds)")
	}
	if cfg.CacheCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid cache_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.CacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
	cfg.CacheCleanupInterval = time.Duration(cfg.CacheCleanupSeconds) * time.Second

	return &cfg, nil
}
