// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir     string        // Base directory for the cache database (always absolute)
	UniverseCSV string        // Path to the ticker universe CSV for batch screens
	LogLevel    string
	Port        int           // Inspection API port, 0 disables the server
	FetchDelay  time.Duration // Pause between upstream calls during batch screens
	HTTPTimeout time.Duration // Upstream HTTP client timeout
	DevMode     bool
}

// Load reads configuration from environment variables.
// A .env file in the working directory is honored if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("PRICEMOVERS_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		UniverseCSV: getEnv("PRICEMOVERS_UNIVERSE_CSV", "nasdaq-100.csv"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnvAsInt("PRICEMOVERS_PORT", 8090),
		FetchDelay:  time.Duration(getEnvAsInt("PRICEMOVERS_FETCH_DELAY_MS", 1000)) * time.Millisecond,
		HTTPTimeout: time.Duration(getEnvAsInt("PRICEMOVERS_HTTP_TIMEOUT_SEC", 30)) * time.Second,
		DevMode:     getEnvAsBool("DEV_MODE", false),
	}

	return cfg, nil
}

// CacheDBPath returns the path of the cache database inside the data directory.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
