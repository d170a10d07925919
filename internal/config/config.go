package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=quickorder port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:8081"
)

type Config struct {
	// backend
	HTTPPort    string
	DatabaseDSN string
	CORSOrigins string

	LogLevel  string
	LogFormat string

	// client
	APIBaseURL     string
	FetchTimeout   time.Duration // read-path loaders; long enough for a cold backend
	WriteTimeout   time.Duration // vendor/item/order writes
	HealthInterval time.Duration
	CacheBackend   string // memory, badger or redis
	CachePath      string
	RedisURL       string
	CacheNamespace string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", defaultDSN),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080"),
		FetchTimeout:   getDuration("FETCH_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 15*time.Second),
		HealthInterval: getDuration("HEALTH_INTERVAL", 15*time.Second),
		CacheBackend:   getEnv("CACHE_BACKEND", "badger"),
		CachePath:      getEnv("CACHE_PATH", "./quickorder-cache"),
		RedisURL:       getEnv("REDIS_URL", ""),
		CacheNamespace: getEnv("CACHE_NAMESPACE", "quickorder:"),
	}

	return cfg
}

// WarnUnsafeDefaults reports backend settings that should be overridden in
// production.
func (c *Config) WarnUnsafeDefaults(log logrus.FieldLogger) {
	if c.DatabaseDSN == defaultDSN {
		log.Warn("DATABASE_DSN is using the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		log.Warn("CORS_ALLOWED_ORIGINS is using the default value, set your own origins for production")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logrus.WithField("key", key).WithField("value", v).Warn("invalid duration, using default")
		return def
	}
	return d
}
