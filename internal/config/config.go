package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrMissingDatabaseURL is returned when SQL storage is selected without DATABASE_URL
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required unless USE_MEMORY_STORAGE=true")

// DatabaseConfig holds connection and pool settings for the SQL store
type DatabaseConfig struct {
	URL string
	// SSLMode is enforced on the connection string unless it already sets one
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	// Echo logs every SQL statement
	Echo bool
}

// Config is the process configuration, read once at startup
type Config struct {
	Port             string
	UseMemoryStorage bool
	ShutdownTimeout  time.Duration
	Database         DatabaseConfig
}

// NewConfigFromEnv builds a Config from environment variables
func NewConfigFromEnv() *Config {
	return &Config{
		Port:             GetEnv("PORT", "8080"),
		UseMemoryStorage: GetEnvBool("USE_MEMORY_STORAGE", false),
		ShutdownTimeout:  GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Database: DatabaseConfig{
			URL:             GetEnv("DATABASE_URL", ""),
			SSLMode:         GetEnv("DB_SSL_MODE", "require"),
			MaxOpenConns:    GetEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    GetEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxIdleTime: GetEnvDuration("DB_CONN_MAX_IDLE_TIME", 300*time.Second),
			ConnMaxLifetime: GetEnvDuration("DB_CONN_MAX_LIFETIME", 300*time.Second),
			Echo:            GetEnvBool("DB_ECHO", false),
		},
	}
}

// Validate reports configuration that would prevent startup
func (c *Config) Validate() error {
	if c.UseMemoryStorage {
		return nil
	}
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}
	return nil
}

// DSN returns the connection string with the configured sslmode applied.
// URL-style strings get a query parameter, key=value strings get an extra pair.
// An sslmode already present in the URL wins.
func (d DatabaseConfig) DSN() (string, error) {
	if d.SSLMode == "" {
		return d.URL, nil
	}

	if strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://") {
		u, err := url.Parse(d.URL)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", d.SSLMode)
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}

	if strings.Contains(d.URL, "sslmode=") {
		return d.URL, nil
	}
	return strings.TrimSpace(d.URL + " sslmode=" + d.SSLMode), nil
}
