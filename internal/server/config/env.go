package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "EXPENSEHUB_"

// parseEnv overlays Config with EXPENSEHUB_* variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it. Malformed durations are ignored.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey)
	cfg.TokenValidityDuration = getEnvAsDuration("TOKEN_VALIDITY", cfg.TokenValidityDuration)
	cfg.S3RootUser = getEnv("S3_ROOT_USER", cfg.S3RootUser)
	cfg.S3RootPassword = getEnv("S3_ROOT_PASSWORD", cfg.S3RootPassword)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3BaseEndpoint = getEnv("S3_BASE_ENDPOINT", cfg.S3BaseEndpoint)
	cfg.UploadURLExpiry = getEnvAsDuration("UPLOAD_URL_EXPIRY", cfg.UploadURLExpiry)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
