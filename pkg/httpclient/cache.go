package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Cache is the storage surface the caching decorator needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// CachingRequester serves repeated successful GETs from a cache. Expiry is
// the cache's concern.
type CachingRequester struct {
	next      Requester
	cache     Cache
	namespace string
	log       Logger
}

// NewCachingRequester wraps next. namespace separates entries of different
// base URLs sharing one cache.
func NewCachingRequester(next Requester, cache Cache, namespace string, log Logger) Requester {
	if cache == nil {
		return next
	}
	return &CachingRequester{
		next:      next,
		cache:     cache,
		namespace: strings.TrimRight(namespace, "/"),
		log:       ensureLogger(log),
	}
}

type cachedResponse struct {
	Method     string      `json:"method"`
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

// Do implements Requester.
func (c *CachingRequester) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method != "" && method != http.MethodGet {
		return c.next.Do(ctx, req)
	}

	key := c.key(req)
	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.WarnObj("response cache read failed", "cache_error", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	} else if ok {
		var cached cachedResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.log.DebugObj("response cache hit", "cache_key", key)
			return &Response{
				Method:     cached.Method,
				URL:        cached.URL,
				StatusCode: cached.StatusCode,
				Header:     cached.Header,
				Body:       cached.Body,
			}, nil
		}
	}

	resp, err := c.next.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, nil
	}

	raw, err := json.Marshal(cachedResponse{
		Method:     resp.Method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	})
	if err == nil {
		err = c.cache.Put(ctx, key, raw)
	}
	if err != nil {
		c.log.WarnObj("response cache write failed", "cache_error", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
	return resp, nil
}

func (c *CachingRequester) key(req Request) string {
	target := JoinURL(c.namespace, req.Path)
	if len(req.Query) == 0 {
		return target
	}
	q := make(url.Values, len(req.Query))
	for k, v := range req.Query {
		q.Set(k, v)
	}
	return target + "?" + q.Encode()
}
