package adsb

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 1 second)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 60 seconds)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64

	// RespectRetryAfter uses Retry-After header if available (default: true)
	RespectRetryAfter bool

	// ShouldRetry decides whether an error is worth another attempt.
	// nil retries every error.
	ShouldRetry func(error) bool

	// Logger receives rate limit notices. nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          60 * time.Second,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// OnlyRateLimited is a ShouldRetry predicate that retries HTTP 429 responses only.
func OnlyRateLimited(err error) bool {
	_, ok := IsRateLimitError(err)
	return ok
}

// RetryWithBackoff executes fn with exponential backoff and returns its result.
// Rate limit errors (HTTP 429) are handled specially by respecting Retry-After headers.
//
// Example usage:
//
//	records, err := RetryWithBackoff(ctx, DefaultRetryConfig(), func() ([]Record, error) {
//	    return client.Point(ctx, lat, lon, radius)
//	})
func RetryWithBackoff[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}

		result = res
		lastErr = err

		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return result, err
		}

		// Last attempt - don't calculate next delay
		if attempt == cfg.MaxRetries {
			break
		}

		// delay = min(InitialDelay * Multiplier^attempt, MaxDelay)
		delay = time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		if rle, ok := IsRateLimitError(err); ok {
			if cfg.RespectRetryAfter && rle.RetryAfter > 0 {
				delay = rle.RetryAfter
			}
			// Retry-After never waits longer than MaxDelay
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			if rle.Headers.Remaining >= 0 {
				logger.Warn("rate limit hit",
					"remaining", rle.Headers.Remaining,
					"limit", rle.Headers.Limit,
					"reset", rle.Headers.Reset)
			}
		}
	}

	if cfg.MaxRetries == 0 {
		return result, lastErr
	}
	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
