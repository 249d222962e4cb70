package apimodel

// TokenPair is the body returned by the token issuing and refresh endpoints.
// The backend issues SimpleJWT style pairs: {"access": "...", "refresh": "..."}.
type TokenPair struct {
	// Access is the short-lived bearer credential.
	// Usage: Authorization: Bearer <access>
	Access string `json:"access"`

	// Refresh mints new access tokens without re-entering a password.
	// Only present on the refresh endpoint when the backend rotates refresh tokens.
	Refresh string `json:"refresh,omitempty"`
}

// LoginRequest is posted to /token/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is posted to /token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}
