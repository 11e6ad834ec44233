package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// HeaderRequestID correlates every attempt of one logical request.
	HeaderRequestID = "X-Request-ID"

	defaultTimeout   = 5 * time.Second
	defaultUserAgent = "api-mastery/phase1-final"
)

// Config holds everything a dispatcher needs; nothing is read from the environment.
type Config struct {
	BaseURL        string
	UserAgent      string
	DefaultHeaders map[string]string
	// Timeout bounds every single attempt.
	Timeout   time.Duration
	Retry     RetryPolicy
	RateLimit RateLimit
	// Transport replaces the default round tripper (tests, proxies).
	Transport http.RoundTripper
	Logger    Logger
}

// RateLimit throttles attempts client-side; zero PerSecond disables it.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// Dispatcher issues requests against one base URL with a shared session,
// a per-attempt timeout, bounded retries and uniform failure classification.
// It is safe for concurrent use once constructed.
type Dispatcher struct {
	baseURL      string
	client       *resty.Client
	retry        RetryPolicy
	limiter      *rate.Limiter
	log          Logger
	newRequestID func() string
}

// New validates cfg and builds a dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	base, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	strategy, err := ParseStrategy(string(cfg.Retry.Backoff.Strategy))
	if err != nil {
		return nil, err
	}
	cfg.Retry.Backoff.Strategy = strategy

	log := ensureLogger(cfg.Logger)
	client := newRestyBaseClient(timeout, cfg.Transport, log)
	client.SetHeaders(cfg.DefaultHeaders)
	client.SetHeader("User-Agent", userAgent)

	var limiter *rate.Limiter
	if cfg.RateLimit.PerSecond > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.PerSecond), burst)
	}

	delays := make([]string, 0, cfg.Retry.MaxRetries)
	for _, d := range cfg.Retry.Backoff.Delays(cfg.Retry.MaxRetries) {
		delays = append(delays, d.String())
	}
	log.DebugObj("http dispatcher ready", "http_dispatcher", map[string]any{
		"base_url":            base,
		"timeout":             timeout.String(),
		"max_retries":         cfg.Retry.MaxRetries,
		"backoff":             string(cfg.Retry.Backoff.Strategy),
		"retry_delays":        delays,
		"retry_server_errors": cfg.Retry.RetryServerErrors,
	})

	return &Dispatcher{
		baseURL:      base,
		client:       client,
		retry:        cfg.Retry,
		limiter:      limiter,
		log:          log,
		newRequestID: func() string { return uuid.New().String() },
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("base url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", raw)
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("base url %q: unsupported scheme %q", raw, u.Scheme)
	}
	return strings.TrimRight(raw, "/"), nil
}

// BaseURL returns the normalized base URL (no trailing slash).
func (d *Dispatcher) BaseURL() string { return d.baseURL }

// Get is Dispatch with GET and optional query parameters.
func (d *Dispatcher) Get(ctx context.Context, path string, query map[string]string) (*Response, error) {
	return d.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Dispatch builds a Request from method, path and options and runs it.
func (d *Dispatcher) Dispatch(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	req := Request{Method: method, Path: path}
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}
	return d.Do(ctx, req)
}

// Do runs one logical request. Network failures are retried under the retry
// policy; 4xx responses are never retried and 5xx only when the policy allows
// it for an idempotent method. Responses below 400 are returned unmodified.
func (d *Dispatcher) Do(ctx context.Context, req Request) (*Response, error) {
	if d == nil || d.client == nil {
		return nil, errors.New("dispatcher is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := JoinURL(d.baseURL, req.Path)
	requestID := d.newRequestID()

	var (
		resp     *Response
		attempts int
	)
	operation := func() error {
		attempts++
		if err := d.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := d.attempt(ctx, method, target, requestID, req)
		if err != nil {
			if ctx.Err() != nil || !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		r.Attempts = attempts
		resp = r
		if d.retry.canRetryStatus(method, r.StatusCode) {
			return &statusError{code: r.StatusCode}
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		d.log.WarnObj("http attempt failed; retrying", "http_retry", map[string]any{
			"method":     method,
			"url":        target,
			"request_id": requestID,
			"attempt":    attempts,
			"next_delay": next.String(),
			"error":      err.Error(),
		})
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(d.retry.newBackOff(), ctx), notify)
	var se *statusError
	if err != nil && !(errors.As(err, &se) && resp != nil) {
		apiErr := &APIError{
			Kind:     KindNetwork,
			Method:   method,
			URL:      target,
			Attempts: attempts,
			Err:      err,
		}
		d.log.ErrorObj("http request failed", "http_error", map[string]any{
			"kind":       apiErr.Kind.String(),
			"method":     method,
			"url":        target,
			"request_id": requestID,
			"attempts":   attempts,
			"error":      err.Error(),
		})
		return nil, apiErr
	}

	if cerr := classify(resp); cerr != nil {
		apiErr, _ := AsAPIError(cerr)
		d.log.WarnObj("http request rejected", "http_error", map[string]any{
			"kind":        apiErr.Kind.String(),
			"method":      method,
			"url":         target,
			"request_id":  requestID,
			"status_code": apiErr.StatusCode,
			"attempts":    apiErr.Attempts,
		})
		return nil, cerr
	}

	d.log.DebugObj("http request completed", "http_response", map[string]any{
		"method":      method,
		"url":         target,
		"request_id":  requestID,
		"status_code": resp.StatusCode,
		"attempts":    resp.Attempts,
	})
	return resp, nil
}

func (d *Dispatcher) wait(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// attempt performs a single round trip on the shared session.
func (d *Dispatcher) attempt(ctx context.Context, method, target, requestID string, req Request) (*Response, error) {
	r := d.client.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, requestID)

	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(method, target)
	if err != nil {
		return nil, err
	}
	return &Response{
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// statusError marks a response the retry policy wants to repeat.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("retryable status %d", e.code) }
