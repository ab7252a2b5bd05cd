// Package config loads linkbase settings from environment variables.
// Every value has a default except the database URL, which the postgres
// driver needs. Load validates the whole configuration and reports every
// problem at once so a misconfigured deployment fails on startup.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Ingest   IngestConfig
	Catalog  CatalogConfig
	Time     TimeConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including the wait for
	// in-flight ingests.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects and configures the table store.
type StoreConfig struct {
	// Driver is one of postgres, sqlite, memory.
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is the database file of the sqlite driver.
	SQLitePath string `env:"SQLITE_PATH" default:"linkbase.db"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// ActiveTableID, when set, replaces the store's own notion of the
	// active table.
	ActiveTableID string `env:"ACTIVE_TABLE_ID"`
}

// IngestConfig holds batch ingest settings.
type IngestConfig struct {
	TitleField string `env:"INGEST_TITLE_FIELD" default:"标题"`
	URLField   string `env:"INGEST_URL_FIELD" default:"网址"`

	// MaxConcurrent is the number of ingests allowed to run at once.
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long an ingest waits for a free slot.
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"10s"`

	Timeout    time.Duration `env:"INGEST_TIMEOUT" default:"60s"`
	MaxRecords int           `env:"INGEST_MAX_RECORDS" default:"5000"`

	// MaxFileSize caps CSV imports, in bytes (default 10MB).
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"10485760"`
}

// CatalogConfig locates the navigation catalog.
type CatalogConfig struct {
	// Source is a file path or http(s) URL. Empty means an empty catalog.
	Source       string        `env:"CATALOG_SOURCE"`
	FetchTimeout time.Duration `env:"CATALOG_FETCH_TIMEOUT" default:"15s"`
}

// TimeConfig holds date rendering settings.
type TimeConfig struct {
	Format string `env:"TIME_FORMAT" default:"YYYY-MM-DD HH:mm:ss"`

	// Zone is an IANA zone name. Empty keeps each value's own offset.
	Zone string `env:"TIME_ZONE"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Location resolves Zone. A nil location means "keep the value's offset".
func (c *TimeConfig) Location() (*time.Location, error) {
	if c.Zone == "" {
		return nil, nil
	}
	return time.LoadLocation(c.Zone)
}
