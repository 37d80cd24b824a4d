package config

import (
	"fmt"
	"os"
)

type Config struct {
	// DatabaseURL points at the Postgres store holding schedules, the run
	// log, and settings.
	DatabaseURL string
	// SnowflakeDSN is the connection string for the warehouse controller
	// and, for the api and run binaries, the task fleet.
	SnowflakeDSN      string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	ServiceName       string
	// DefaultTimezone is the bootstrap fallback only; the runtime value
	// lives in the settings table.
	DefaultTimezone string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SnowflakeDSN:      getEnv("SNOWFLAKE_DSN", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ":9090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServiceName:       getEnv("SERVICE_NAME", ""),
		DefaultTimezone:   getEnv("DEFAULT_TIMEZONE", ""),
	}

	return cfg, nil
}

// Validate checks the fields the given binary role requires.
func (c *Config) Validate(role string) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s requires DATABASE_URL", role)
	}
	if c.SnowflakeDSN == "" {
		return fmt.Errorf("%s requires SNOWFLAKE_DSN", role)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
