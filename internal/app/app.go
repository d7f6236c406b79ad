// Package app wires configuration into the flight wall components shared
// by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unklstewy/flightwall/internal/db"
	"github.com/unklstewy/flightwall/pkg/adsb"
	"github.com/unklstewy/flightwall/pkg/airports"
	"github.com/unklstewy/flightwall/pkg/config"
	"github.com/unklstewy/flightwall/pkg/coordinates"
	"github.com/unklstewy/flightwall/pkg/flights"
	"github.com/unklstewy/flightwall/pkg/routes"
)

// NewFetcher builds the snapshot fetcher with its provider clients,
// route cache and enricher.
func NewFetcher(cfg *config.Config, logger *slog.Logger) *flights.Fetcher {
	source := adsb.NewAirplanesLiveClient(adsb.Config{
		BaseURL:     cfg.ADSB.BaseURL,
		APIKey:      cfg.ADSB.APIKey,
		Timeout:     cfg.ADSB.Timeout(),
		MinInterval: cfg.ADSB.MinInterval(),
	})

	var enricher *flights.Enricher
	if cfg.RouteLookup.Enabled {
		client := routes.NewClient(routes.Config{
			BaseURL:           cfg.RouteLookup.BaseURL,
			Timeout:           cfg.RouteLookup.Timeout(),
			RequestsPerSecond: cfg.RouteLookup.RequestsPerSecond,
			UserAgent:         cfg.RouteLookup.UserAgent,
		})
		cache := routes.NewBoundedCache(cfg.RouteLookup.CacheSize, cfg.RouteLookup.CacheTTL())
		enricher = flights.NewEnricher(client, cache, flights.EnrichConfig{
			Enabled:        true,
			MaxNewPerCycle: cfg.RouteLookup.MaxNewPerCycle,
		}, logger)
	}

	retry := adsb.DefaultRetryConfig()
	retry.MaxRetries = cfg.ADSB.MaxRetries

	return flights.NewFetcher(source, enricher, flights.Settings{
		Center: coordinates.Geographic{
			Latitude:  cfg.Observer.Latitude,
			Longitude: cfg.Observer.Longitude,
		},
		RadiusKm: cfg.Observer.RadiusKm,
		Retry:    retry,
	}, logger)
}

// AirportStore is the airport index chosen by configuration.
type AirportStore struct {
	Index airports.Index

	// Health checks the backing database; nil for the file index
	Health func(ctx context.Context) error

	database *db.DB
}

// Close releases the database connection, if any.
func (s *AirportStore) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}

// OpenAirports returns the Postgres airport store when the database is
// enabled, otherwise the JSON file index.
func OpenAirports(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*AirportStore, error) {
	if !cfg.Database.Enabled {
		return &AirportStore{Index: airports.LoadFile(cfg.Airports.File, logger)}, nil
	}

	database, err := db.ReconnectWithRetry(ctx, cfg.Database, 5, time.Second, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to airport database: %w", err)
	}
	if err := database.InitSchema(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	repo := db.NewAirportRepository(database)
	if n, err := repo.Count(ctx); err == nil {
		logger.Info("airport store ready", "airports", n)
	}

	return &AirportStore{
		Index: repo,
		Health: func(ctx context.Context) error {
			return db.HealthCheck(ctx, database)
		},
		database: database,
	}, nil
}
