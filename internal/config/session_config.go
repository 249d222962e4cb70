package config

type SessionConfig interface {
	GetSignInRoute() string
	GetKeepTokensOnUnavailable() bool
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSignInRoute() string {
	return GetEnv("SIGN_IN_ROUTE", "/sign-in")
}

// GetKeepTokensOnUnavailable keeps persisted tokens when the bootstrap profile
// call fails for availability reasons instead of logging the user out.
func (Session) GetKeepTokensOnUnavailable() bool {
	return GetEnvBool("KEEP_TOKENS_ON_UNAVAILABLE", false)
}
