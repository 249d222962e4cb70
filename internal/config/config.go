package config

type Config interface {
	EnvConfig
	HTTPConfig
	SessionConfig
	PaymentConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetAPIBaseURL() string
	GetListenAddr() string
	GetTokenStore() string
	GetTokenFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKey() string
}

type mainConfig struct {
	EnvVars
	HTTP
	Session
	Payment
}

func New() Config {
	return mainConfig{}
}
