package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	appNameVar    = "APP_NAME"
	apiBaseURLVar = "API_BASE_URL"
	listenAddrVar = "LISTEN_ADDR"
	tokenStoreVar = "TOKEN_STORE"
	tokenFileVar  = "TOKEN_FILE"
)

const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// LoadDotEnv loads a .env file into the process environment when present.
// Variables already set in the environment win.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Smart Condominium")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetAPIBaseURL returns the backend API root, e.g. "http://localhost:8000/api".
// The /api suffix is appended to API_BASE_URL the same way the web console does.
func (EnvVars) GetAPIBaseURL() string {
	base := strings.TrimRight(GetEnv(apiBaseURLVar, "http://localhost:8000"), "/")
	if strings.HasSuffix(base, "/api") {
		return base
	}
	return base + "/api"
}

func (EnvVars) GetListenAddr() string {
	addr := GetEnv(listenAddrVar, "8089")
	if addr != "" && addr[0] != ':' && !strings.Contains(addr, ":") {
		addr = fmt.Sprintf(":%s", addr)
	}
	return addr
}

func (EnvVars) GetTokenStore() string {
	return strings.ToLower(GetEnv(tokenStoreVar, TokenStoreFile))
}

func (EnvVars) GetTokenFile() string {
	return GetEnv(tokenFileVar, ".condominium-tokens.json")
}

func (EnvVars) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "127.0.0.1:6379")
}

func (EnvVars) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (EnvVars) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (EnvVars) GetRedisKey() string {
	return GetEnv("REDIS_KEY", "condominium:session")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}
