package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application-wide configuration loaded from environment variables.
type Config struct {
	DatabaseURL       string
	AppEnv            string
	Port              string
	SentryDSN         string
	IngestionPageSize int
}

// LoadConfig reads configuration from environment variables or a .env file.
// It is the single source of truth for application configuration.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists. In production these are set directly
	// in the environment.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("FATAL: DATABASE_URL environment variable not set")
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	pageSize := 200
	if raw := os.Getenv("INGESTION_PAGE_SIZE"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("FATAL: INGESTION_PAGE_SIZE must be a positive integer, got %q", raw)
		}
		pageSize = parsed
	}

	return &Config{
		DatabaseURL:       dbURL,
		AppEnv:            appEnv,
		Port:              port,
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		IngestionPageSize: pageSize,
	}, nil
}
