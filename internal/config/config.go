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
	DataDir  string // Base directory for the database and fallback snapshot (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Finance portal scraping
	NaverBaseURL   string        // Base URL of the finance portal (overridable for tests)
	UserAgent      string        // User-Agent header sent on every portal request
	RequestTimeout time.Duration // Per-request timeout for provider calls
	MaxRetries     int           // Retry budget per provider call before giving up
	LookbackDays   int           // Daily rows fetched from the portal per company

	// Scheduled batch collection
	BatchEnabled  bool
	BatchSchedule string // Cron expression (with seconds field) for the weekly batch

	// Degraded-mode snapshot (read-only, used when the store is unreachable)
	FallbackPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("GAMESTOCK_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("PORT", 8001),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		NaverBaseURL:   getEnv("NAVER_FINANCE_BASE_URL", "https://finance.naver.com"),
		UserAgent:      getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		MaxRetries:     getEnvAsInt("MAX_RETRY_COUNT", 3),
		LookbackDays:   getEnvAsInt("DEFAULT_DAYS_BACK", 21),
		BatchEnabled:   getEnvAsBool("BATCH_ENABLED", true),
		BatchSchedule:  getEnv("BATCH_SCHEDULE", "0 0 7 * * MON"),
		FallbackPath:   getEnv("FALLBACK_SNAPSHOT_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retry count must be at least 1, got %d", c.MaxRetries)
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("lookback days must be at least 1, got %d", c.LookbackDays)
	}
	return nil
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "stockprice.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
