package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/DiegoxdGarcia2/smart-condominium/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestHTTPError_Message(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error key", `{"error": "Ya existe un pago pendiente"}`, "Ya existe un pago pendiente"},
		{"detail key", `{"detail": "Token is invalid or expired", "code": "token_not_valid"}`, "Token is invalid or expired"},
		{"non string value", `{"detail": ["bad"]}`, "[bad]"},
		{"raw text", "  upstream exploded \n", "upstream exploded"},
		{"empty body", "", http.StatusText(http.StatusBadGateway)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &errors.HTTPError{Method: http.MethodGet, Path: "/x/", StatusCode: http.StatusBadGateway, Body: []byte(tt.body)}
			require.Equal(t, tt.want, err.Message())
			require.Contains(t, err.Error(), "status 502")
		})
	}
}

func TestHTTPError_IsUnauthorized(t *testing.T) {
	unauthorized := fmt.Errorf("wrapped: %w", &errors.HTTPError{StatusCode: http.StatusUnauthorized})
	require.ErrorIs(t, unauthorized, errors.ErrUnauthorized)
	require.Equal(t, http.StatusUnauthorized, errors.StatusCode(unauthorized))

	forbidden := &errors.HTTPError{StatusCode: http.StatusForbidden}
	require.NotErrorIs(t, forbidden, errors.ErrUnauthorized)
	require.Equal(t, 0, errors.StatusCode(errors.ErrNetwork))
}

func TestWrapf(t *testing.T) {
	require.NoError(t, errors.Wrapf(nil, "nothing"))

	err := errors.Wrapf(errors.ErrPaymentNotFound, "poll %s", "cs_1")
	require.EqualError(t, err, "poll cs_1: payment not found")
	require.True(t, errors.Is(err, errors.ErrPaymentNotFound))
}
