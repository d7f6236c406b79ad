package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/unklstewy/flightwall/pkg/config"
)

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
// This provides resilience against a database that starts after the server.
//
// Parameters:
//   - ctx: Cancels the wait between attempts
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = infinite)
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or error if all retries exhausted
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	delay := initialDelay
	attempt := 0

	for {
		attempt++

		logger.Info("database connection attempt", "attempt", attempt, "host", cfg.Host)

		db, err := Connect(cfg)
		if err == nil {
			logger.Info("database connected", "host", cfg.Host, "database", cfg.Database)
			return db, nil
		}

		// Check if we've exceeded max retries
		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempt, err)
		}

		logger.Warn("database connection failed", "err", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connection cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		// Exponential backoff with cap at 60 seconds
		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// HealthCheck performs a health check on the database.
// Returns nil if the database is healthy and ready for operations.
func HealthCheck(ctx context.Context, db *DB) error {
	if db == nil {
		return fmt.Errorf("database not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Test basic connectivity
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	// Test a simple query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected result: %d", result)
	}

	return nil
}

// connErrors are substrings of errors caused by a lost connection.
var connErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"bad connection",
	"eof",
	"timeout",
}

// IsConnectionError reports whether err looks like a lost connection
// rather than a query or data problem.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry executes a database operation with automatic retry on connection failures.
// Errors that are not connection errors are returned immediately.
//
// Parameters:
//   - ctx: Cancels the wait between attempts
//   - operation: Function to execute that may fail due to connection issues
//   - maxRetries: Maximum number of retry attempts
//   - wait: Base wait, multiplied by the attempt number
//
// Returns: Error from operation or nil on success
func WithRetry(ctx context.Context, operation func() error, maxRetries int, wait time.Duration) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(time.Duration(attempt+1) * wait):
			}
		}
	}

	return lastErr
}
