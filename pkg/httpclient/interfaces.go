package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// Requester issues one logical HTTP request against a base URL. Dispatcher and
// the caching decorator both implement it so client wrappers can be stacked.
type Requester interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Request describes a single logical call relative to the dispatcher base URL.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

// Response is a successful (status < 400) HTTP response.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// Text returns the body as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// ContentType returns the lower-cased media type without parameters.
func (r *Response) ContentType() string {
	if r == nil {
		return ""
	}
	return mediaType(r.Header)
}

// IsJSON reports whether the declared media type is JSON (application/json or +json).
func (r *Response) IsJSON() bool {
	return isJSONMediaType(r.ContentType())
}

// JSON decodes the body into v without schema validation.
func (r *Response) JSON(v any) error {
	if r == nil {
		return json.Unmarshal(nil, v)
	}
	return json.Unmarshal(r.Body, v)
}

// RequestOption customizes a Request built by Dispatch.
type RequestOption func(*Request)

// WithQuery sets query parameters passed through unmodified.
func WithQuery(query map[string]string) RequestOption {
	return func(r *Request) {
		if len(query) == 0 {
			return
		}
		if r.Query == nil {
			r.Query = make(map[string]string, len(query))
		}
		for k, v := range query {
			r.Query[k] = v
		}
	}
}

// WithBody sets the request body; structs and maps are sent as JSON.
func WithBody(body any) RequestOption {
	return func(r *Request) { r.Body = body }
}

// WithHeader adds a per-request header, overriding defaults.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string, 1)
		}
		r.Headers[key] = value
	}
}
