package httpclient

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	snippetLimit = 200

	emptyBodyMarker   = "<empty-body>"
	invalidJSONMarker = "<invalid-json-body>"
)

// JoinURL joins base and path with exactly one separator.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// mediaType returns the base media type of the Content-Type header, lower-cased.
func mediaType(h http.Header) string {
	if h == nil {
		return ""
	}
	base, _, _ := strings.Cut(h.Get("Content-Type"), ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func isJSONMediaType(mt string) bool {
	return strings.HasSuffix(mt, "/json") || strings.HasSuffix(mt, "+json")
}

// snippet trims body and keeps its first 200 characters.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return emptyBodyMarker
	}
	return truncateRunes(s, snippetLimit)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// classify maps a received response onto the failure taxonomy. It returns nil
// for anything below 400.
func classify(resp *Response) error {
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return &APIError{
			Kind:       KindServer,
			Method:     resp.Method,
			URL:        resp.URL,
			StatusCode: resp.StatusCode,
			Snippet:    snippet(resp.Body),
			Attempts:   resp.Attempts,
		}
	case resp.StatusCode >= http.StatusBadRequest:
		return &APIError{
			Kind:       KindClient,
			Method:     resp.Method,
			URL:        resp.URL,
			StatusCode: resp.StatusCode,
			Snippet:    snippet(resp.Body),
			Detail:     clientErrorDetail(resp),
			Attempts:   resp.Attempts,
		}
	default:
		return nil
	}
}

// clientErrorDetail sniffs the content type: JSON bodies are parsed and
// embedded, anything else is reduced to a text snippet.
func clientErrorDetail(resp *Response) any {
	if resp.IsJSON() {
		var data any
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return map[string]any{"error": invalidJSONMarker}
		}
		if obj, ok := data.(map[string]any); ok {
			return obj
		}
		return map[string]any{"error": data}
	}
	return map[string]any{"error": snippet(resp.Body)}
}

// isRetryable reports whether a transport error is a connection-level or
// timeout failure. Request-level failures such as redirect loops or an
// unsupported scheme fail on the first attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
