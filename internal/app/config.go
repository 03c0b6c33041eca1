package app

import (
	"os"
	"strconv"
	"time"

	"github.com/fernhill/userd/pkg/jwtx"
)

type Config struct {
	Issuer        string // Issuer claim for tokens and TOTP enrollment
	MasterSecret  string // Key material for the 2FA secret codec
	JWTSecret     string // HMAC secret for access tokens
	RefreshSecret string // HMAC secret for refresh tokens

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 168h)

	DatabaseEnabled bool   // When false, run in demo mode on the memory store
	DatabaseFile    string // Path to SQLite database file (default: ./userd.db)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:        getEnvOrDefault("USERD_ISSUER", "userd"),
		MasterSecret:  os.Getenv("USERD_MASTER_SECRET"),
		JWTSecret:     os.Getenv("USERD_JWT_SECRET"),
		RefreshSecret: os.Getenv("USERD_JWT_REFRESH_SECRET"),

		AccessTTL:  getEnvDurationOrDefault("USERD_JWT_EXPIRATION", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("USERD_JWT_REFRESH_EXPIRATION", jwtx.DefaultRefreshTokenTTL),

		DatabaseEnabled: getEnvBoolOrDefault("USERD_DATABASE_ENABLED", true),
		DatabaseFile:    getEnvOrDefault("USERD_DATABASE_FILE", "userd.db"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
