package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout, nil, nil)
}

// newRestyBaseClient creates the session shared by every attempt of a dispatcher.
// Retries are handled by the dispatcher, so resty's own retry stays disabled.
func newRestyBaseClient(timeout time.Duration, transport http.RoundTripper, log Logger) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	if transport != nil {
		c.SetTransport(transport)
	}
	if log != nil {
		c.SetLogger(restyLogger{log: log})
	}
	return c
}

// restyLogger routes resty's printf-style logs into the structured logger.
type restyLogger struct {
	log Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.ErrorObj("resty", "message", fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.WarnObj("resty", "message", fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.DebugObj("resty", "message", fmt.Sprintf(format, v...))
}
