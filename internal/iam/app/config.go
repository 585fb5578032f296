package app

import (
	"os"
	"strconv"
	"time"

	"github.com/laptruong-hub/iam-service/pkg/jwtx"
)

type Config struct {
	Issuer  string // Required: issuer claim for tokens
	NumKeys int    // Optional: number of signing keys to generate (default: 3)

	DatabaseFile string // Optional: path to SQLite database file (default: ./iam.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Optional: refresh session lifetime (default: 7 days)
	ResetCodeTTL    time.Duration // Optional: password reset code lifetime (default: 5m)

	AdminPassword string // Required on first boot: seeds the built-in admin account

	SMTPHost     string // Optional: empty host means emails go to the log instead
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:  getEnvOrDefault("IAM_ISSUER", "iam-service"),
		NumKeys: getEnvIntOrDefault("IAM_NUM_KEYS", 3),

		DatabaseFile: getEnvOrDefault("IAM_DATABASE_FILE", "iam.db"),
		PepperFile:   getEnvOrDefault("IAM_PEPPER_FILE", "pepper"),

		AccessTokenTTL:  getEnvDurationOrDefault("IAM_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("IAM_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		ResetCodeTTL:    getEnvDurationOrDefault("IAM_RESET_CODE_TTL", 5*time.Minute),

		AdminPassword: os.Getenv("IAM_ADMIN_PASSWORD"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@rental.com"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
