package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPBinURL != "http://localhost:8080" {
		t.Fatalf("unexpected httpbin url %q", cfg.HTTPBinURL)
	}
	if cfg.PokeAPIURL != "https://pokeapi.co/api/v2" || cfg.RickMortyURL != "https://rickandmortyapi.com/api" {
		t.Fatalf("unexpected api urls %q %q", cfg.PokeAPIURL, cfg.RickMortyURL)
	}
	if cfg.UserAgent != "" {
		t.Fatalf("unexpected user agent %q", cfg.UserAgent)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.MaxRetries != 2 || cfg.RetryBaseDelay != 200*time.Millisecond || cfg.BackoffStrategy != "linear" {
		t.Fatalf("unexpected retry settings %+v", cfg)
	}
	if cfg.RetryServerErrors || cfg.UseAWS || cfg.UseGCP {
		t.Fatalf("expected local-only defaults")
	}
	if cfg.StorageType != "none" || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected storage defaults %q %v", cfg.StorageType, cfg.CacheTTL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTPBIN_URL", "http://httpbin.internal:9000")
	t.Setenv("MAX_RETRIES", "4")
	t.Setenv("BACKOFF_STRATEGY", "Exponential")
	t.Setenv("USE_AWS", "true")
	t.Setenv("REQUEST_TIMEOUT_MS", "750")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPBinURL != "http://httpbin.internal:9000" {
		t.Fatalf("HTTPBIN_URL not applied: %q", cfg.HTTPBinURL)
	}
	if cfg.MaxRetries != 4 {
		t.Fatalf("MAX_RETRIES not applied: %d", cfg.MaxRetries)
	}
	if cfg.BackoffStrategy != "exponential" {
		t.Fatalf("strategy not normalized: %q", cfg.BackoffStrategy)
	}
	if !cfg.UseAWS {
		t.Fatalf("USE_AWS not applied")
	}
	if cfg.RequestTimeout != 750*time.Millisecond {
		t.Fatalf("timeout not applied: %v", cfg.RequestTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		env  string
		val  string
		want string
	}{
		{"REQUEST_TIMEOUT_MS", "0", "request_timeout_ms"},
		{"MAX_RETRIES", "-1", "max_retries"},
		{"BACKOFF_STRATEGY", "fibonacci", "backoff_strategy"},
		{"RETRY_JITTER", "1.5", "retry_jitter"},
		{"CACHE_TTL_SECONDS", "0", "cache_ttl_seconds"},
		{"RATE_LIMIT_RPS", "-2", "rate_limit_rps"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			_, err := load(viper.New())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
