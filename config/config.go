package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Environment string
	Server      struct {
		Port           string
		AllowedOrigins []string
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	Encryption struct {
		// Key is hex-encoded, 32 bytes once decoded. Encrypts TOTP
		// secrets at rest.
		Key string
	}
	TwoFactor struct {
		Issuer       string
		ChallengeTTL time.Duration
		ReapInterval time.Duration
	}
	Internal struct {
		// Token authenticates sibling services on the internal
		// admin-status route.
		Token string
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.Environment = getEnv("APP_ENV", "development")

	// Server
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.AllowedOrigins = getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"})

	// Database
	postgresUser := getEnv("POSTGRES_USER", "veloria")
	postgresPass := getEnv("POSTGRES_PASSWORD", "veloria_secure_password")
	postgresHost := getEnv("POSTGRES_HOST", "localhost")
	postgresPort := getEnv("POSTGRES_PORT", "5432")
	postgresDB := getEnv("POSTGRES_DB", "veloria_admin")
	postgresSSL := getEnv("POSTGRES_SSLMODE", "disable")
	cfg.Database.URL = getEnv("DATABASE_URL", "postgres://"+postgresUser+":"+postgresPass+"@"+postgresHost+":"+postgresPort+"/"+postgresDB+"?sslmode="+postgresSSL)

	// Redis
	redisHost := getEnv("REDIS_HOST", "localhost")
	redisPort := getEnv("REDIS_PORT", "6379")
	cfg.Redis.URL = getEnv("REDIS_URL", "redis://"+redisHost+":"+redisPort)

	// Encryption
	cfg.Encryption.Key = getEnv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	// Two-factor
	cfg.TwoFactor.Issuer = getEnv("TOTP_ISSUER", "Veloria Admin")
	cfg.TwoFactor.ChallengeTTL = getEnvDuration("LOGIN_CHALLENGE_TTL", 5*time.Minute)
	cfg.TwoFactor.ReapInterval = getEnvDuration("CHALLENGE_REAP_INTERVAL", time.Minute)

	// Internal service-to-service auth
	cfg.Internal.Token = getEnv("INTERNAL_API_TOKEN", "")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				result = append(result, v)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
