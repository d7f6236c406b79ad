package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unklstewy/flightwall/pkg/airports"
)

// AirportRepository stores the airport index in PostgreSQL.
// It implements airports.Index.
type AirportRepository struct {
	db *DB

	// retries is how many times a lookup is retried on a lost connection
	retries int
	wait    time.Duration
}

var _ airports.Index = (*AirportRepository)(nil)

// NewAirportRepository creates a new airport repository.
func NewAirportRepository(db *DB) *AirportRepository {
	return &AirportRepository{db: db, retries: 2, wait: 500 * time.Millisecond}
}

// Lookup returns the airport for code, or nil if it is not stored.
func (r *AirportRepository) Lookup(ctx context.Context, code string) (*airports.Airport, error) {
	code = airports.NormalizeCode(code)
	if code == "" {
		return nil, nil
	}

	query := `
		SELECT code, name, latitude, longitude, elev_ft
		FROM airports
		WHERE code = $1
	`

	var (
		apt           airports.Airport
		lat, lon, elv sql.NullFloat64
		found         bool
	)
	err := WithRetry(ctx, func() error {
		err := r.db.QueryRowContext(ctx, query, code).Scan(
			&apt.Code,
			&apt.Name,
			&lat,
			&lon,
			&elv,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		found = err == nil
		return err
	}, r.retries, r.wait)
	if err != nil {
		return nil, fmt.Errorf("failed to get airport %s: %w", code, err)
	}
	if !found {
		return nil, nil
	}

	apt.Lat = nullFloat(lat)
	apt.Lon = nullFloat(lon)
	apt.ElevFt = nullFloat(elv)
	return &apt, nil
}

// Upsert inserts or replaces one airport.
func (r *AirportRepository) Upsert(ctx context.Context, apt airports.Airport) error {
	return upsertAirport(ctx, r.db, apt)
}

// UpsertAll stores airports in a single transaction.
// Returns the number of airports written.
func (r *AirportRepository) UpsertAll(ctx context.Context, list []airports.Airport) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, apt := range list {
		if err := upsertAirport(ctx, tx, apt); err != nil {
			return 0, err
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit airports: %w", err)
	}
	return count, nil
}

// Count returns the number of stored airports.
func (r *AirportRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count airports: %w", err)
	}
	return n, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertAirport(ctx context.Context, ex execer, apt airports.Airport) error {
	code := airports.NormalizeCode(apt.Code)
	if code == "" {
		return errors.New("airport code is required")
	}

	_, err := ex.ExecContext(ctx,
		`INSERT INTO airports (code, name, latitude, longitude, elev_ft, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (code) DO UPDATE SET
		 name = EXCLUDED.name,
		 latitude = EXCLUDED.latitude,
		 longitude = EXCLUDED.longitude,
		 elev_ft = EXCLUDED.elev_ft,
		 updated_at = NOW()`,
		code, apt.Name, toNull(apt.Lat), toNull(apt.Lon), toNull(apt.ElevFt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert airport %s: %w", code, err)
	}
	return nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func toNull(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
