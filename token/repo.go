package token

import (
	"context"

	"golang.org/x/oauth2"
)

// Persisted keys for the token pair.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Pair is the persisted access/refresh credential pair. An empty field is absent.
type Pair struct {
	Access  string `json:"accessToken,omitempty"`
	Refresh string `json:"refreshToken,omitempty"`
}

// IsEmpty reports a pair with neither token.
func (p Pair) IsEmpty() bool {
	return p.Access == "" && p.Refresh == ""
}

// Merge returns next with the current refresh token carried over when next does
// not rotate it.
func (p Pair) Merge(next Pair) Pair {
	if next.Refresh == "" {
		next.Refresh = p.Refresh
	}
	return next
}

// OAuth2 returns the pair as a bearer oauth2.Token.
func (p Pair) OAuth2() *oauth2.Token {
	if p.Access == "" {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken:  p.Access,
		RefreshToken: p.Refresh,
		TokenType:    "Bearer",
	}
	if claims, err := inspectExpiry(p.Access); err == nil {
		tok.Expiry = claims
	}
	return tok
}

// Store is durable client-side storage for the token pair. It is shared by the
// session manager and the HTTP client, so reads always return the latest
// persisted value and writes replace both tokens together.
type Store interface {
	// Load returns the persisted pair; a missing pair is an empty Pair, not an error.
	Load(ctx context.Context) (Pair, error)

	// Save atomically replaces the pair. An empty Refresh keeps the stored refresh token.
	Save(ctx context.Context, pair Pair) error

	// Clear removes both tokens.
	Clear(ctx context.Context) error
}
