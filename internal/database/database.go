// Package database provides connection setup for the credential store and
// Redis. Both connections are created once at startup and shared across the
// application via dependency injection. This package owns the connection
// lifecycle (open, configure pool, ping, close).
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Drivers are imported for the side effect of registering with database/sql.
	// pgx serves postgres:// URLs (hosted Postgres), go-sql-driver serves MariaDB.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/spaceyvirtualera/spacey/internal/config"
)

// connectAttempts bounds the startup ping loop.
const connectAttempts = 10

// Open creates a connection pool for the configured DATABASE_URL, picking the
// driver from the URL scheme, and pings it before returning.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	driver := cfg.Driver()
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driver, err)
	}

	// Configure connection pool settings to prevent connection exhaustion
	// and stale connections under load.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithBackoff(db, driver, connectAttempts, time.Second); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// pingWithBackoff pings until the database answers or attempts run out. The
// database container may still be starting when the app launches; this only
// runs at startup; request-time store failures are never retried.
func pingWithBackoff(db *sql.DB, driver string, attempts int, backoff time.Duration) error {
	var pingErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = db.PingContext(ctx)
		cancel()

		if pingErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		slog.Warn("database not ready, retrying...",
			slog.String("driver", driver),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", attempts),
			slog.Duration("backoff", backoff),
			slog.Any("error", pingErr),
		)
		time.Sleep(backoff)
		backoff = min(backoff*2, 30*time.Second)
	}

	return fmt.Errorf("pinging %s after %d attempts: %w", driver, attempts, pingErr)
}
