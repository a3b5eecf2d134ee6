package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	AccountsTable string

	// JWTSecret signs bearer tokens. Required; Load fails without it.
	JWTSecret []byte
	JWTTTL    time.Duration

	OTPTTL time.Duration

	SNSRegion string

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
// It returns an error when required settings are missing so the process
// refuses to start instead of running with a guessable signing key.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		AccountsTable: getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),

		JWTSecret: []byte(secret),
		JWTTTL:    getEnvDuration("JWT_TTL", time.Hour),

		OTPTTL: getEnvDuration("OTP_TTL", 10*time.Minute),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
