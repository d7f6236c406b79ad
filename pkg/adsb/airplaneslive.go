package adsb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the airplanes.live v2 API base URL
	DefaultBaseURL = "https://api.airplanes.live/v2"

	// DefaultTimeout for point queries
	DefaultTimeout = 10 * time.Second

	// MaxRadiusNM is the largest radius the point endpoint accepts
	MaxRadiusNM = 250.0

	// apiKeyHeader carries the optional API credential
	apiKeyHeader = "api-auth"
)

// Config contains configuration for the airplanes.live client.
type Config struct {
	// BaseURL is the API base URL (default: https://api.airplanes.live/v2)
	BaseURL string

	// APIKey is sent in the api-auth header when set
	APIKey string

	// Timeout bounds each request (default: 10 seconds)
	Timeout time.Duration

	// MinInterval is the minimum time between requests.
	// 0 disables client-side rate limiting.
	MinInterval time.Duration
}

// AirplanesLiveClient implements DataSource for the airplanes.live API
// and ADSBexchange-compatible mirrors.
// API Documentation: https://airplanes.live/api-guide/
type AirplanesLiveClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// limiter spaces requests; nil when MinInterval is 0
	limiter *rate.Limiter
}

// NewAirplanesLiveClient creates a new airplanes.live API client.
func NewAirplanesLiveClient(cfg Config) *AirplanesLiveClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &AirplanesLiveClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.MinInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return c
}

// Point returns all aircraft entries within a radius of a given point.
// Uses the /point/[lat]/[lon]/[radius] endpoint.
//
// The radius is capped at MaxRadiusNM. Entries are returned as the
// provider sent them; callers decide which ones are usable.
func (c *AirplanesLiveClient) Point(ctx context.Context, centerLat, centerLon, radiusNM float64) ([]Record, error) {
	if radiusNM > MaxRadiusNM {
		radiusNM = MaxRadiusNM
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	url := fmt.Sprintf("%s/point/%s/%s/%.2f",
		c.baseURL,
		strconv.FormatFloat(centerLat, 'f', -1, 64),
		strconv.FormatFloat(centerLon, 'f', -1, 64),
		radiusNM,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aircraft data: %w", err)
	}
	defer resp.Body.Close()

	// Check for rate limit (HTTP 429)
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "Rate limit exceeded",
			Headers:    extractRateLimitHeaders(resp.Header),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp pointResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	return apiResp.Aircraft, nil
}

// pointResponse represents the JSON response from the point endpoint.
type pointResponse struct {
	// Aircraft is the array of aircraft entries
	Aircraft []Record `json:"ac"`

	// Total number of aircraft
	Total int `json:"total"`

	// Now is the server timestamp in milliseconds
	Now float64 `json:"now"`
}

// RateLimitError represents an HTTP 429 rate limit error with retry information.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Headers    RateLimitHeaders
}

// RateLimitHeaders contains rate limit information from response headers.
type RateLimitHeaders struct {
	Limit     int       // X-Rate-Limit-Limit: Maximum requests allowed
	Remaining int       // X-Rate-Limit-Remaining: Requests remaining in current window
	Reset     time.Time // X-Rate-Limit-Reset: When the rate limit resets
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// IsRateLimitError checks if an error is, or wraps, a rate limit error.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// parseRetryAfter extracts the Retry-After header value.
// Returns the duration to wait, or 0 if header is not present.
// Supports both delay-seconds (integer) and HTTP-date formats.
//
// Examples:
//
//	Retry-After: 30                            -> 30 seconds
//	Retry-After: Wed, 21 Oct 2015 07:28:00 GMT -> duration until that time
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(retryTime); d > 0 {
			return d
		}
	}

	return 0
}

// extractRateLimitHeaders extracts common rate limit headers from the response.
// Both the X-Rate-Limit-* and X-RateLimit-* spellings are accepted.
func extractRateLimitHeaders(headers http.Header) RateLimitHeaders {
	rlh := RateLimitHeaders{
		Limit:     -1,
		Remaining: -1,
	}

	if v, ok := headerInt(headers, "X-Rate-Limit-Limit", "X-RateLimit-Limit"); ok {
		rlh.Limit = int(v)
	}
	if v, ok := headerInt(headers, "X-Rate-Limit-Remaining", "X-RateLimit-Remaining"); ok {
		rlh.Remaining = int(v)
	}
	if v, ok := headerInt(headers, "X-Rate-Limit-Reset", "X-RateLimit-Reset"); ok {
		rlh.Reset = time.Unix(v, 0)
	}

	return rlh
}

// headerInt returns the first of names present in headers, parsed as an integer.
func headerInt(headers http.Header, names ...string) (int64, bool) {
	for _, name := range names {
		raw := headers.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
