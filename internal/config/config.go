package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Storage
	StoreBackend string
	SQLitePath   string
	DatabaseURL  string
	RedisURL     string

	// Directory
	RoomExpiry      time.Duration
	CompactInterval time.Duration // 0 disables compaction

	// Rate limiting
	RateLimitPerMinute int
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		StoreBackend:       getEnv("STORE_BACKEND", BackendMemory),
		SQLitePath:         os.Getenv("SQLITE_PATH"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RoomExpiry:         getDuration("ROOM_EXPIRY", time.Hour),
		CompactInterval:    getDuration("COMPACT_INTERVAL", 0),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite, BackendPostgres, BackendRedis:
	default:
		panic("STORE_BACKEND must be one of memory, sqlite, postgres, redis")
	}

	// In production, require the connection URL of the chosen backend
	if cfg.Env == "production" {
		if cfg.StoreBackend == BackendPostgres && cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
		if cfg.StoreBackend == BackendRedis && cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
