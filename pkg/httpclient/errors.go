package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates the failure classes surfaced by a dispatcher.
type Kind int

const (
	// KindNetwork means no response was obtained: connection failure, timeout
	// on every permitted attempt, cancellation, or a request-level failure such
	// as a redirect loop or an unencodable body. Only connection and timeout
	// failures are retried.
	KindNetwork Kind = iota + 1
	// KindServer is a response with status >= 500.
	KindServer
	// KindClient is a response with status in [400, 500).
	KindClient
	// KindValidation is a successful response whose body did not match the schema.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// APIError is the single error type surfaced by dispatchers and decoders.
// Callers branch on Kind and the structured fields, never on the message.
type APIError struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	// Snippet is the trimmed body truncated to 200 characters, or a marker.
	Snippet string
	// Detail carries the parsed JSON body of a client error, or the field
	// errors of a validation failure.
	Detail   any
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("network error after %d attempt(s) on %s %s: %v", e.Attempts, e.Method, e.URL, e.Err)
	case KindServer:
		return fmt.Sprintf("server error %d on %s: %s", e.StatusCode, e.URL, e.Snippet)
	case KindClient:
		return fmt.Sprintf("HTTP %d on %s: %s", e.StatusCode, e.URL, renderDetail(e.Detail, e.Snippet))
	case KindValidation:
		if e.Err != nil {
			return fmt.Sprintf("validation error on %s: %v", e.URL, e.Err)
		}
		return fmt.Sprintf("validation error on %s", e.URL)
	default:
		return fmt.Sprintf("api error on %s: %v", e.URL, e.Err)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// AsAPIError extracts *APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == kind
}

// StatusCode returns the HTTP status attached to err, or 0 when none was received.
func StatusCode(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

func renderDetail(detail any, fallback string) string {
	if detail == nil {
		return fallback
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(detail); err != nil {
		return fmt.Sprintf("%v", detail)
	}
	return strings.TrimSpace(buf.String())
}
