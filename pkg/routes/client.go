// Package routes resolves a flight's origin and destination from its
// callsign using the adsbdb.com API, and caches the answers for the life
// of the process.
//
// API Documentation: https://www.adsbdb.com/
package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the adsbdb v0 API base URL
	DefaultBaseURL = "https://api.adsbdb.com/v0"

	// DefaultTimeout for route lookups. Shorter than the live-position fetch.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent identifies us to adsbdb
	DefaultUserAgent = "flightwall-web/0.1"
)

// ErrNotFound is returned when the provider has no route for a callsign.
var ErrNotFound = errors.New("route not found")

// Route is a resolved origin/destination pair. Empty strings mean the side
// is unknown; a Route with both sides empty is the "looked up, nothing
// found" marker.
type Route struct {
	Origin      string
	Destination string
}

// Resolved reports whether at least one side of the route is known.
func (r Route) Resolved() bool {
	return r.Origin != "" || r.Destination != ""
}

// Lookup is the interface route providers implement.
type Lookup interface {
	Lookup(ctx context.Context, callsign string) (Route, error)
}

// Config contains configuration for the adsbdb client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond spaces outbound calls. 0 disables spacing.
	RequestsPerSecond float64

	UserAgent string
}

// Client is an adsbdb callsign route client.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a new adsbdb client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: limiter,
	}
}

// Lookup retrieves the route flown under a callsign.
//
// Returns ErrNotFound when adsbdb answers 404. A 200 answer without a
// usable flightroute yields a Route with empty sides and no error.
// Any other failure is returned as an error and should not be cached.
func (c *Client) Lookup(ctx context.Context, callsign string) (Route, error) {
	cs := NormalizeCallsign(callsign)
	if cs == "" {
		return Route{}, errors.New("empty callsign")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Route{}, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/callsign/%s", c.baseURL, url.PathEscape(cs))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Route{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Route{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return Route{}, ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Route{}, fmt.Errorf("API error %d: %s", resp.StatusCode, truncate(body, 256))
	}

	route, err := parseRoute(body)
	if err != nil {
		return Route{}, fmt.Errorf("parse response: %w", err)
	}
	return route, nil
}

// parseRoute extracts origin/destination from an adsbdb callsign payload:
//
//	{"response": {"flightroute": {"origin": {...}, "destination": {...}}}}
func parseRoute(body []byte) (Route, error) {
	var envelope struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Route{}, err
	}

	response, err := optionalObject(envelope.Response)
	if err != nil {
		return Route{}, fmt.Errorf("response: %w", err)
	}

	var fr struct {
		FlightRoute json.RawMessage `json:"flightroute"`
	}
	if response != nil {
		if err := json.Unmarshal(response, &fr); err != nil {
			return Route{}, err
		}
	}

	flightRoute, err := optionalObject(fr.FlightRoute)
	if err != nil {
		return Route{}, fmt.Errorf("flightroute: %w", err)
	}
	if flightRoute == nil {
		return Route{}, nil
	}

	var sides struct {
		Origin      any `json:"origin"`
		Destination any `json:"destination"`
	}
	if err := json.Unmarshal(flightRoute, &sides); err != nil {
		return Route{}, err
	}

	return Route{
		Origin:      pickCode(sides.Origin),
		Destination: pickCode(sides.Destination),
	}, nil
}

// optionalObject returns raw if it is a JSON object, nil if it is absent,
// null, or otherwise empty-ish, and an error for any other JSON value.
func optionalObject(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("expected object, got %s", truncate(trimmed, 64))
	}
	return trimmed, nil
}

// airportKeys are tried in order to pick an airport's display code.
var airportKeys = []string{"icao_code", "iata_code", "name"}

func pickCode(v any) string {
	airport, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range airportKeys {
		if s, ok := airport[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// NormalizeCallsign trims and uppercases a callsign for use as a cache key.
func NormalizeCallsign(callsign string) string {
	return strings.ToUpper(strings.TrimSpace(callsign))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
