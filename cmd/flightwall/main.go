// FlightWall Web Server
// Serves the flight wall page and the JSON API it polls.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unklstewy/flightwall/internal/app"
	"github.com/unklstewy/flightwall/internal/logging"
	"github.com/unklstewy/flightwall/internal/server"
	"github.com/unklstewy/flightwall/pkg/config"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	port       = flag.String("port", "", "HTTP server port (overrides config)")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)
	defer logger.Close()

	logger.Info("starting flightwall server",
		"center_lat", cfg.Observer.Latitude,
		"center_lon", cfg.Observer.Longitude,
		"radius_km", cfg.Observer.RadiusKm,
		"route_lookup", cfg.RouteLookup.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenAirports(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("airport store unavailable", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(server.Options{
		Server:   cfg.Server,
		Observer: cfg.Observer,
		Flights:  app.NewFetcher(cfg, logger.Logger),
		Airports: store.Index,
		Health:   store.Health,
		Logger:   logger.Logger,
	})

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}

	logger.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
		return
	}

	logger.Info("server stopped")
}
