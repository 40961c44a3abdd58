package config

import (
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Remote appointment store.
	StoreBaseURL string
	StoreTimeout time.Duration

	// View refresh cadences. The pending queue and the daily schedule
	// drive staffing decisions, so they poll aggressively; archive views
	// have no timer at all.
	NewQueueRefresh time.Duration
	ScheduleRefresh time.Duration

	// Redis-backed revision registry shared between reception terminals.
	// An empty address keeps revisions in process memory.
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StoreBaseURL:    getEnv("STORE_BASE_URL", "http://localhost:9090"),
		StoreTimeout:    getEnvAsDuration("STORE_TIMEOUT", 15*time.Second),
		NewQueueRefresh: getEnvAsDuration("NEW_QUEUE_REFRESH", 5*time.Second),
		ScheduleRefresh: getEnvAsDuration("SCHEDULE_REFRESH", 5*time.Second),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
