package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// ErrMissingEmailFrom is returned in production when no sender address is configured.
var ErrMissingEmailFrom = errors.New("EMAIL_FROM must be set in production")

// Config holds the application configuration.
type Config struct {
	ServerPort int
	AppEnv     string
	LogLevel   string

	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseURL    string

	JWTSecret  string
	SessionTTL time.Duration

	ClientURL     string // Base URL used in password reset links
	EmailFrom     string
	EmailFromName string
	AWSRegion     string

	ResetTokenTTL      time.Duration
	ResetPurgeSchedule string // cron spec for the expired reset token purge
	CORSOrigins        []string
}

// ResetTokenLifetime is how long an emailed reset link stays valid.
const ResetTokenLifetime = 30 * time.Minute

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	cfg := &Config{
		ServerPort:         port,
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:        getEnv("DATABASE_URL", "./accounts.db"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SessionTTL:         sessionTTL,
		ClientURL:          strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:3000"), "/"),
		EmailFrom:          os.Getenv("EMAIL_FROM"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Accounts"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		ResetTokenTTL:      ResetTokenLifetime,
		ResetPurgeSchedule: getEnv("RESET_PURGE_SCHEDULE", "@every 15m"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.IsProduction() && c.EmailFrom == "" {
		return ErrMissingEmailFrom
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
