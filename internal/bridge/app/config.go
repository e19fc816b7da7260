package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	TokenSecret  string // Required: signing secret for access tokens
	PublicURL    string // Optional: externally reachable base URL (default: http://localhost:<port>)
	ClientID     string // Optional: pin the one accepted OAuth client id
	DatabaseFile string // Optional: path to SQLite database file (default: ./tonearm.db)

	SeedUsername string // Optional: create this user at startup if missing
	SeedPassword string // Optional: password for the seed user

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

var errMissingTokenSecret = errors.New("TONEARM_TOKEN_SECRET is required")

func LoadConfig() (Config, error) {
	cfg := Config{
		TokenSecret:         os.Getenv("TONEARM_TOKEN_SECRET"),
		PublicURL:           os.Getenv("TONEARM_PUBLIC_URL"),
		ClientID:            os.Getenv("TONEARM_CLIENT_ID"),
		DatabaseFile:        getEnvOrDefault("TONEARM_DATABASE_FILE", "tonearm.db"),
		SeedUsername:        os.Getenv("TONEARM_SEED_USERNAME"),
		SeedPassword:        os.Getenv("TONEARM_SEED_PASSWORD"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.TokenSecret == "" {
		return Config{}, errMissingTokenSecret
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	return cfg, nil
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
