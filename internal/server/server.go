// Package server is the flight wall HTTP API and static front-end host.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/flightwall/pkg/airports"
	"github.com/unklstewy/flightwall/pkg/config"
	"github.com/unklstewy/flightwall/pkg/flights"
)

// Snapshotter produces flight snapshots. *flights.Fetcher implements it.
type Snapshotter interface {
	Snapshot(ctx context.Context, q flights.Query) []flights.Flight
}

// Options are the server's dependencies.
type Options struct {
	Server   config.ServerConfig
	Observer config.ObserverConfig

	Flights  Snapshotter
	Airports airports.Index

	// Health reports backing store health for /healthz. nil = always healthy
	Health func(ctx context.Context) error

	Logger *slog.Logger
}

// Server routes HTTP requests to the flight wall handlers.
type Server struct {
	router *chi.Mux
	opts   Options
	logger *slog.Logger
}

// New creates a Server with all routes registered.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router: chi.NewRouter(),
		opts:   opts,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	origins := s.opts.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Get("/flights", s.handleGetFlights)
		r.Post("/center/airport", s.handleCenterAirport)
	})

	if dir := s.opts.Server.StaticDir; dir != "" {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
		r.Handle("/static/*", fileServer)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
		})
	}
}

// requestLogger logs each request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type configResponse struct {
	CenterLat   float64 `json:"center_lat"`
	CenterLon   float64 `json:"center_lon"`
	RadiusKm    float64 `json:"radius_km"`
	CenterLabel string  `json:"center_label"`
}

// handleGetConfig returns the default center and radius that clients
// seed their own view with.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	obs := s.opts.Observer
	respondJSON(w, http.StatusOK, configResponse{
		CenterLat:   obs.Latitude,
		CenterLon:   obs.Longitude,
		RadiusKm:    obs.RadiusKm,
		CenterLabel: obs.CenterLabel(),
	})
}

// handleGetFlights returns the current snapshot. It always answers 200;
// an upstream outage shows up as an empty list.
func (s *Server) handleGetFlights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list := s.opts.Flights.Snapshot(r.Context(), flights.Query{
		CenterLat: q.Get("center_lat"),
		CenterLon: q.Get("center_lon"),
		RadiusNM:  q.Get("radius_nm"),
	})
	if list == nil {
		list = []flights.Flight{}
	}
	respondJSON(w, http.StatusOK, list)
}

// handleCenterAirport resolves an airport code into a center. It does not
// change any server state; clients keep their own center.
func (s *Server) handleCenterAirport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Airport string `json:"airport"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if s.opts.Airports == nil {
		respondError(w, http.StatusNotFound, "Unknown airport code")
		return
	}

	center, err := airports.ResolveCenter(r.Context(), s.opts.Airports, req.Airport)
	switch {
	case errors.Is(err, airports.ErrUnknownAirport):
		respondError(w, http.StatusNotFound, "Unknown airport code")
		return
	case errors.Is(err, airports.ErrMissingCoordinates):
		respondError(w, http.StatusInternalServerError, "Airport record missing coordinates")
		return
	case err != nil:
		s.logger.Error("airport lookup failed", "airport", req.Airport, "err", err)
		respondError(w, http.StatusInternalServerError, "Airport lookup failed")
		return
	}

	s.logger.Info("airport center resolved",
		"airport", center.Code,
		"name", center.Name,
		"lat", center.Lat,
		"lon", center.Lon)

	respondJSON(w, http.StatusOK, center)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		if err := s.opts.Health(r.Context()); err != nil {
			s.logger.Warn("health check failed", "err", err)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
