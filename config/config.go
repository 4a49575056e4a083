package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	APIBaseURL  string
	SessionFile string
	RedisAddr   string
	HTTPTimeout time.Duration
	LogLevel    string
}

// Load loads the configuration from a .env file if present, falling back
// to system environment variables.
func Load() (*Config, error) {
	// A missing .env file is fine; the system environment takes over.
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	config := &Config{
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080/api"),
		SessionFile: getEnv("SESSION_FILE", defaultSessionFile()),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		HTTPTimeout: timeout,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.SessionFile == "" && c.RedisAddr == "" {
		return fmt.Errorf("SESSION_FILE or REDIS_ADDR is required")
	}
	return nil
}

// UseRedis reports whether the session store should live in Redis.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".servitech-session.json"
	}
	return filepath.Join(home, ".servitech", "session.json")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
