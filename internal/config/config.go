// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Default allowed origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:5173",
}

// Config keeps runtime settings for the API server.
type Config struct {
	Port               string
	Environment        string
	LogLevel           string
	DatabaseDriver     string
	DatabaseURL        string
	JWTSecret          string
	TokenTTL           time.Duration
	AllowedOrigins     []string
	PublicContentReads bool
}

// Development reports whether the server runs with developer defaults
// (console logs, gin debug mode).
func (c Config) Development() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables with sane defaults.
// A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:               getEnv("PORT", "3000"),
		Environment:        getEnv("APP_ENV", "production"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           parseHours(getEnv("TOKEN_TTL_HOURS", ""), 168*time.Hour),
		AllowedOrigins:     allowedOrigins(),
		PublicContentReads: parseBool(getEnv("PUBLIC_CONTENT_READS", ""), true),
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "inote.db"
		}
	default:
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseHours(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return fallback
	}
	return time.Duration(hours) * time.Hour
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func allowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowed := os.Getenv("ALLOWED_ORIGINS"); allowed != "" {
		for _, origin := range strings.Split(allowed, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
