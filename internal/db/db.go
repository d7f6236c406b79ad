// Package db is the PostgreSQL airport store.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/unklstewy/flightwall/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	// Open connection
	sqlDB, err := sql.Open("postgres", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		config: cfg,
	}

	return db, nil
}

// connString builds a lib/pq key=value connection string.
func connString(cfg config.DatabaseConfig) string {
	s := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Database,
		cfg.SSLMode,
	)
	if cfg.Password != "" {
		s += " password=" + quoteValue(cfg.Password)
	}
	return s
}

// quoteValue quotes a connection string value so spaces and quotes survive.
func quoteValue(v string) string {
	out := make([]byte, 0, len(v)+2)
	out = append(out, '\'')
	for i := 0; i < len(v); i++ {
		if v[i] == '\'' || v[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, v[i])
	}
	return string(append(out, '\''))
}

// InitSchema creates or updates the database schema.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	// Read schema SQL
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	// Execute schema
	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (map[string]any, error) {
	stats := make(map[string]any)

	var airportCount int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airports`).Scan(&airportCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count airports: %w", err)
	}
	stats["airports"] = airportCount

	var withElevation int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM airports WHERE elev_ft IS NOT NULL`,
	).Scan(&withElevation)
	if err != nil {
		return nil, fmt.Errorf("failed to count airport elevations: %w", err)
	}
	stats["airports_with_elevation"] = withElevation

	return stats, nil
}
