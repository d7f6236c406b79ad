package flights

import (
	"context"
	"log/slog"

	"github.com/unklstewy/flightwall/pkg/routes"
)

// DefaultMaxNewPerCycle is the default budget of new route lookups per snapshot.
const DefaultMaxNewPerCycle = 2

// EnrichConfig controls route enrichment.
type EnrichConfig struct {
	// Enabled turns route lookups on
	Enabled bool

	// MaxNewPerCycle is how many uncached callsigns may be looked up in
	// one Enrich call. Cache hits are free.
	MaxNewPerCycle int
}

// EnrichStats summarizes one Enrich call.
type EnrichStats struct {
	Cached   int // filled from the cache
	Fetched  int // looked up by this call (counts against the budget)
	Joined   int // answered by a concurrent caller's lookup
	Failed   int // lookup errors, left unresolved
	Deferred int // skipped because the budget ran out
}

// Enricher fills in origin and destination on flights.
type Enricher struct {
	lookup routes.Lookup
	cache  *routes.Cache
	cfg    EnrichConfig
	logger *slog.Logger
}

// NewEnricher creates an Enricher. cache is shared across calls and may be
// shared across Enrichers; a nil cache gets a fresh unbounded one.
func NewEnricher(lookup routes.Lookup, cache *routes.Cache, cfg EnrichConfig, logger *slog.Logger) *Enricher {
	if cache == nil {
		cache = routes.NewCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		lookup: lookup,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Cache returns the route cache backing this Enricher.
func (e *Enricher) Cache() *routes.Cache {
	return e.cache
}

// Enrich fills routes on flights in place, in slice order.
//
// Flights that already carry a route or have a blank callsign are left
// alone. Cached callsigns are filled without an outbound call. At most
// MaxNewPerCycle new lookups are issued; the rest wait for a later call.
// A lookup that fails is logged, does not use up budget, and is not cached.
func (e *Enricher) Enrich(ctx context.Context, flights []Flight) EnrichStats {
	var stats EnrichStats
	if !e.cfg.Enabled {
		return stats
	}

	for i := range flights {
		fl := &flights[i]
		if fl.HasRoute() {
			continue
		}

		cs := routes.NormalizeCallsign(fl.Callsign)
		if cs == "" {
			continue
		}

		if r, ok := e.cache.Get(cs); ok {
			fl.applyRoute(r)
			stats.Cached++
			continue
		}

		if stats.Fetched >= e.cfg.MaxNewPerCycle {
			stats.Deferred++
			continue
		}

		r, outcome, err := e.cache.Resolve(ctx, cs, e.lookup.Lookup)
		if err != nil {
			e.logger.Warn("route lookup failed", "callsign", cs, "err", err)
			stats.Failed++
			continue
		}

		switch outcome {
		case routes.Fetched:
			stats.Fetched++
		case routes.Joined:
			stats.Joined++
		default:
			stats.Cached++
		}
		fl.applyRoute(r)
	}

	if stats.Deferred > 0 {
		e.logger.Debug("route lookup budget exhausted",
			"deferred", stats.Deferred,
			"budget", e.cfg.MaxNewPerCycle)
	}

	return stats
}
