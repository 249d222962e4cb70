package apiclient

import (
	"net/http"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// Interceptor adjusts an outgoing request after the bearer token is attached.
// Interceptors run in the order they were registered.
type Interceptor func(r *http.Request) error

// RequestIDInterceptor tags each request with a correlation id unless the
// caller already set one.
func RequestIDInterceptor() Interceptor {
	return func(r *http.Request) error {
		if r.Header.Get(RequestIDHeader) == "" {
			r.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return nil
	}
}

// DebugInterceptor logs the method, path and request id. The Authorization
// header is reported as present or absent only.
func (c *Client) DebugInterceptor() Interceptor {
	return func(r *http.Request) error {
		c.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get(RequestIDHeader)).
			Bool("bearer", r.Header.Get("Authorization") != "").
			Msg("api request")
		return nil
	}
}
