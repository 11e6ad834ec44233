// Package httpbin wraps the httpbin echo service.
package httpbin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/api-mastery/pkg/httpclient"
)

const (
	// DefaultBaseURL points at a locally running httpbin container.
	DefaultBaseURL = "http://localhost:8080"
	// DefaultUserAgent identifies the httpbin client when none is configured.
	DefaultUserAgent = "api-mastery/phase1-final"
)

// HeadersModel is the subset of echoed request headers the demos rely on.
type HeadersModel struct {
	Host      string `json:"Host" validate:"required"`
	UserAgent string `json:"User-Agent"`
	RequestID string `json:"X-Request-Id"`
}

type headersEnvelope struct {
	Headers HeadersModel `json:"headers"`
}

// Echo is the body httpbin returns for /get, /post and /delay.
type Echo struct {
	Args    map[string]string `json:"args"`
	Headers map[string]string `json:"headers"`
	Origin  string            `json:"origin"`
	URL     string            `json:"url" validate:"required"`
	JSON    any               `json:"json,omitempty"`
}

// PageSummary is extracted from the /html document.
type PageSummary struct {
	Heading    string
	Paragraphs int
}

// Client talks to httpbin.
type Client struct {
	req httpclient.Requester
}

// New builds a client with its own dispatcher. Empty BaseURL and UserAgent
// fall back to DefaultBaseURL and DefaultUserAgent.
func New(cfg httpclient.Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	d, err := httpclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("httpbin dispatcher: %w", err)
	}
	return NewWithRequester(d), nil
}

// NewWithRequester wraps an existing requester, e.g. a caching one.
func NewWithRequester(r httpclient.Requester) *Client {
	return &Client{req: r}
}

// Headers returns the headers httpbin received. Host must be present.
func (c *Client) Headers(ctx context.Context) (HeadersModel, error) {
	resp, err := c.req.Do(ctx, httpclient.Request{Path: "headers"})
	if err != nil {
		return HeadersModel{}, err
	}
	env, err := httpclient.Decode[headersEnvelope](resp)
	if err != nil {
		return HeadersModel{}, err
	}
	return env.Headers, nil
}

// Get echoes query parameters back.
func (c *Client) Get(ctx context.Context, params map[string]string) (Echo, error) {
	return c.echo(ctx, httpclient.Request{Path: "get", Query: params})
}

// Page emulates offset pagination by sending page and per_page to /get.
func (c *Client) Page(ctx context.Context, page, perPage int) (Echo, error) {
	if page < 1 || perPage < 1 {
		return Echo{}, fmt.Errorf("page and per_page must be positive, got %d and %d", page, perPage)
	}
	return c.Get(ctx, map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	})
}

// Post sends body as JSON and returns the echo.
func (c *Client) Post(ctx context.Context, body any) (Echo, error) {
	return c.echo(ctx, httpclient.Request{Method: http.MethodPost, Path: "post", Body: body})
}

// Delay asks httpbin to wait before answering; useful to trip the per-attempt timeout.
func (c *Client) Delay(ctx context.Context, seconds int) (Echo, error) {
	if seconds < 0 {
		return Echo{}, errors.New("delay must not be negative")
	}
	return c.echo(ctx, httpclient.Request{Path: "delay/" + strconv.Itoa(seconds)})
}

// Status requests an arbitrary status code. Codes >= 400 come back as *httpclient.APIError.
func (c *Client) Status(ctx context.Context, code int) (*httpclient.Response, error) {
	return c.req.Do(ctx, httpclient.Request{Path: "status/" + strconv.Itoa(code)})
}

// HTML fetches /html and summarizes the document.
func (c *Client) HTML(ctx context.Context) (PageSummary, error) {
	resp, err := c.req.Do(ctx, httpclient.Request{Path: "html"})
	if err != nil {
		return PageSummary{}, err
	}
	if ct := resp.ContentType(); ct != "text/html" {
		return PageSummary{}, htmlError(resp, fmt.Errorf("expected text/html, got %q", ct))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return PageSummary{}, htmlError(resp, fmt.Errorf("parse html: %w", err))
	}
	return PageSummary{
		Heading:    strings.TrimSpace(doc.Find("h1").First().Text()),
		Paragraphs: doc.Find("p").Length(),
	}, nil
}

// htmlError reports an /html response that could not be summarized.
func htmlError(resp *httpclient.Response, err error) *httpclient.APIError {
	return &httpclient.APIError{
		Kind:       httpclient.KindValidation,
		Method:     resp.Method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Attempts:   resp.Attempts,
		Err:        err,
	}
}

func (c *Client) echo(ctx context.Context, req httpclient.Request) (Echo, error) {
	resp, err := c.req.Do(ctx, req)
	if err != nil {
		return Echo{}, err
	}
	return httpclient.Decode[Echo](resp)
}
