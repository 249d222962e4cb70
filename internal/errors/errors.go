package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Common error types for the condominium client
var (
	// Authentication errors
	ErrAuth             = errors.New("authentication failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrSessionInvalid   = errors.New("session invalid")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoRefreshToken   = errors.New("no refresh token available")

	// Transport errors
	ErrNetwork = errors.New("network error")

	// Payment errors
	ErrMissingSession   = errors.New("missing payment session id")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrPaymentTimeout   = errors.New("payment confirmation timed out")
	ErrPaymentRejected  = errors.New("payment rejected")
	ErrCheckoutURL      = errors.New("untrusted checkout url")
	ErrNoPendingPayment = errors.New("no pending payment for fee")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
)

// HTTPError is returned for any non-2xx response from the backend.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message())
}

// Message extracts the backend's human readable message. The backend answers
// with {"error": ...} or {"detail": ...}; anything else is returned raw.
func (e *HTTPError) Message() string {
	var fields map[string]any
	if err := json.Unmarshal(e.Body, &fields); err == nil {
		for _, key := range []string{"error", "detail", "message"} {
			if v, ok := fields[key]; ok && v != nil {
				if s, ok := v.(string); ok {
					return s
				}
				return fmt.Sprint(v)
			}
		}
	}
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return http.StatusText(e.StatusCode)
	}
	return body
}

// Is lets errors.Is(err, ErrUnauthorized) match a 401 response.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from a backend response.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Wrapf annotates err with a message and the call stack. It returns nil when err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error carrying the call stack.
func New(text string) error {
	return pkgerrors.New(text)
}

// Join is errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
