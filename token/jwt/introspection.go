package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims are the access-token claims the client reads for display. They are
// parsed without signature verification: the backend stays the authority on
// whether a token is valid.
type Claims struct {
	UserID    string    // user_id claim
	TokenType string    // token_type claim ("access" / "refresh")
	JTI       string    // Unique token ID
	IssuedAt  time.Time // iat
	ExpiresAt time.Time // exp, zero when absent
}

// Expired reports whether exp has passed. Tokens without exp never expire here.
func (c *Claims) Expired() bool {
	return !c.ExpiresAt.IsZero() && !NowTimeFunc().Before(c.ExpiresAt)
}

// ExpiresIn returns the time left before exp.
func (c *Claims) ExpiresIn() time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	return c.ExpiresAt.Sub(NowTimeFunc())
}

// Inspect extracts claims from a raw JWT without verifying it.
func Inspect(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("[Inspect] parse: %w", err)
	}

	mapClaims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("[Inspect] error extracting claims")
	}

	claims := &Claims{
		UserID:    claimString(mapClaims["user_id"]),
		TokenType: claimString(mapClaims["token_type"]),
		JTI:       claimString(mapClaims["jti"]),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	return claims, nil
}

func claimString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.0f", val)
	default:
		return fmt.Sprint(val)
	}
}
