package httpclient

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy names a backoff policy.
type Strategy string

const (
	StrategyConstant    Strategy = "constant"
	StrategyLinear      Strategy = "linear"
	StrategyExponential Strategy = "exponential"

	defaultMaxRetries = 2
	defaultBaseDelay  = 200 * time.Millisecond
	defaultMaxDelay   = 5 * time.Second
)

// ParseStrategy accepts a case-insensitive strategy name; empty means linear.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyLinear:
		return StrategyLinear, nil
	case StrategyConstant:
		return StrategyConstant, nil
	case StrategyExponential:
		return StrategyExponential, nil
	default:
		return "", fmt.Errorf("unknown backoff strategy %q", s)
	}
}

// BackoffConfig describes the delay between attempts.
type BackoffConfig struct {
	Strategy  Strategy
	BaseDelay time.Duration
	// MaxDelay caps a single delay; zero leaves linear and constant uncapped
	// and caps exponential at 5s.
	MaxDelay time.Duration
	// Jitter is the +/- randomization factor for exponential backoff (0..1).
	Jitter float64
}

// RetryPolicy bounds how often and on what a dispatcher retries.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	Backoff    BackoffConfig
	// RetryServerErrors enables retries of 5xx responses for idempotent methods.
	RetryServerErrors bool
}

// DefaultRetryPolicy retries network failures twice with linear 200ms steps.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: defaultMaxRetries,
		Backoff: BackoffConfig{
			Strategy:  StrategyLinear,
			BaseDelay: defaultBaseDelay,
		},
	}
}

func (p RetryPolicy) canRetryStatus(method string, code int) bool {
	if !p.RetryServerErrors || code < http.StatusInternalServerError {
		return false
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(p.Backoff.newBackOff(), uint64(retries))
}

func (c BackoffConfig) newBackOff() backoff.BackOff {
	switch c.Strategy {
	case StrategyConstant:
		return backoff.NewConstantBackOff(c.BaseDelay)
	case StrategyExponential:
		maxDelay := c.MaxDelay
		if maxDelay <= 0 {
			maxDelay = defaultMaxDelay
		}
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = c.BaseDelay
		b.RandomizationFactor = clampJitter(c.Jitter)
		b.Multiplier = 2
		b.MaxInterval = maxDelay
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	default:
		return &linearBackOff{base: c.BaseDelay, max: c.MaxDelay}
	}
}

// Delays returns the first n delays the policy would produce. Exponential
// delays include jitter.
func (c BackoffConfig) Delays(n int) []time.Duration {
	b := c.newBackOff()
	out := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, b.NextBackOff())
	}
	return out
}

func clampJitter(j float64) float64 {
	switch {
	case j < 0:
		return 0
	case j > 1:
		return 1
	default:
		return j
	}
}

// linearBackOff waits base*n before the n-th retry.
type linearBackOff struct {
	base    time.Duration
	max     time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	d := b.base * time.Duration(b.attempt)
	if b.max > 0 && d > b.max {
		d = b.max
	}
	return d
}

func (b *linearBackOff) Reset() { b.attempt = 0 }
