// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. The resulting Config is built once in main and passed to the
// packages that need it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Driver names registered with database/sql.
const (
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

// Config holds all application configuration.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL, used as the allowed CORS origin.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds credential store connection settings.
	Database DatabaseConfig

	// Redis holds the optional rate limiter backing store.
	Redis RedisConfig

	// Auth holds password, session, and rate limit settings.
	Auth AuthConfig
}

// DatabaseConfig holds the credential store connection parameters.
type DatabaseConfig struct {
	// URL is the raw DATABASE_URL. Required.
	URL string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// Driver returns the database/sql driver name for the configured URL.
// postgres:// and postgresql:// URLs go to pgx, everything else is treated
// as MariaDB/MySQL.
func (d DatabaseConfig) Driver() string {
	lower := strings.ToLower(d.URL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverMySQL
}

// DSN returns the connection string in the form the selected driver expects.
// Postgres URLs are passed through untouched. mysql:// URLs are converted to
// a go-sql-driver DSN via mysql.Config.FormatDSN so special characters in
// passwords survive; bare DSNs ("user:pass@tcp(host)/db") are returned as-is.
func (d DatabaseConfig) DSN() (string, error) {
	if d.Driver() == DriverPostgres {
		return d.URL, nil
	}
	if !strings.HasPrefix(strings.ToLower(d.URL), "mysql://") {
		return d.URL, nil
	}

	u, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	// Empty means rate limiting falls back to an in-process counter.
	URL string
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SessionSecret is the HMAC key for session tokens. Required.
	SessionSecret string

	// SessionTTL is the lifetime of a minted session token.
	SessionTTL time.Duration

	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName string

	// BcryptCost is the bcrypt work factor for new password hashes.
	BcryptCost int

	// HashConcurrency caps how many bcrypt operations run at once.
	HashConcurrency int

	// RoleClaim adds the user's role to session tokens.
	RoleClaim bool

	// TrackLastLogin stamps users.last_login on successful sign-in.
	TrackLastLogin bool

	// LoginRateLimit is the number of login attempts per IP per minute.
	LoginRateLimit int

	// SignupRateLimit is the number of signup attempts per IP per minute.
	SignupRateLimit int
}

// Load reads configuration from environment variables. DATABASE_URL and
// SESSION_SECRET have no defaults: the process must not start without them.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},

		Auth: AuthConfig{
			SessionSecret:     getEnv("SESSION_SECRET", ""),
			SessionTTL:        getEnvDuration("SESSION_TTL", 720*time.Hour),
			SessionCookieName: getEnv("SESSION_COOKIE_NAME", "spacey_session"),
			BcryptCost:        getEnvInt("BCRYPT_COST", 12),
			HashConcurrency:   getEnvInt("HASH_CONCURRENCY", runtime.NumCPU()),
			RoleClaim:         getEnvBool("AUTH_ROLE_CLAIM", false),
			TrackLastLogin:    getEnvBool("AUTH_TRACK_LAST_LOGIN", false),
			LoginRateLimit:    getEnvInt("RATE_LIMIT_LOGIN", 10),
			SignupRateLimit:   getEnvInt("RATE_LIMIT_SIGNUP", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks required settings and value ranges.
func (c *Config) validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Auth.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 characters in production"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}
	if c.Auth.HashConcurrency < 1 {
		c.Auth.HashConcurrency = 1
	}

	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true if running in production mode. Case-insensitive
// so "Production" and "prod" are caught too.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvBool reads a boolean env var ("true", "1", "yes") or returns the default.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		if strings.EqualFold(val, "yes") {
			return true
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
