// Package config loads application configuration from environment
// variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig

	// RedisURL switches the rate limiter to the Redis-backed
	// implementation when set; empty keeps the in-memory limiter.
	RedisURL string

	// LogLevel is a logrus level name (debug, info, warn, error)
	LogLevel string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path string
}

// AuthConfig holds session and admin-seed configuration
type AuthConfig struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration

	// Default administrative account, seeded once if absent
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

// RateLimitConfig holds the auth endpoint rate limits
type RateLimitConfig struct {
	LoginMaxAttempts    int
	LoginWindow         time.Duration
	RegisterMaxAttempts int
	RegisterWindow      time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("NIPPO_HOST", "0.0.0.0"),
			Port:            getEnv("NIPPO_PORT", "3000"),
			ReadTimeout:     getEnvDuration("NIPPO_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("NIPPO_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("NIPPO_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("NIPPO_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("NIPPO_DB_PATH", "./database.db"),
		},
		Auth: AuthConfig{
			SessionTTL:    getEnvDuration("NIPPO_SESSION_TTL", 24*time.Hour),
			SweepInterval: getEnvDuration("NIPPO_SESSION_SWEEP_INTERVAL", 10*time.Minute),
			AdminUsername: getEnv("NIPPO_ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("NIPPO_ADMIN_PASSWORD", "admin123"),
			AdminEmail:    getEnv("NIPPO_ADMIN_EMAIL", "admin@example.com"),
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts:    getEnvInt("NIPPO_LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:         getEnvDuration("NIPPO_LOGIN_WINDOW", 15*time.Minute),
			RegisterMaxAttempts: getEnvInt("NIPPO_REGISTER_MAX_ATTEMPTS", 3),
			RegisterWindow:      getEnvDuration("NIPPO_REGISTER_WINDOW", 60*time.Minute),
		},
		RedisURL: getEnv("NIPPO_REDIS_URL", ""),
		LogLevel: getEnv("NIPPO_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Auth.AdminPassword == "" {
		return fmt.Errorf("admin password must not be empty")
	}
	if c.RateLimit.LoginMaxAttempts <= 0 || c.RateLimit.RegisterMaxAttempts <= 0 {
		return fmt.Errorf("rate limit attempt counts must be positive")
	}
	return nil
}

// getEnv returns the environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as duration or a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
