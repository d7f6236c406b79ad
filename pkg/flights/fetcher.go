package flights

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/unklstewy/flightwall/pkg/adsb"
	"github.com/unklstewy/flightwall/pkg/classify"
	"github.com/unklstewy/flightwall/pkg/coordinates"
)

// Search radius limits in nautical miles.
const (
	MinRadiusNM = 10.0
	MaxRadiusNM = 250.0

	// fallbackRadiusKm is used when the configured radius is unusable
	fallbackRadiusKm = 200.0
)

// Query carries the caller's optional overrides exactly as received,
// typically from URL query parameters. Empty strings mean "not given".
type Query struct {
	CenterLat string
	CenterLon string
	RadiusNM  string
}

// Settings are the process-wide defaults a Fetcher falls back to.
type Settings struct {
	// Center is the default observer point
	Center coordinates.Geographic

	// RadiusKm is the default search radius in kilometers
	RadiusKm float64

	// Retry controls retries of the live-position fetch.
	// The zero value makes a single attempt.
	Retry adsb.RetryConfig
}

// Fetcher produces flight snapshots. It is safe for concurrent use; the
// only state shared between calls is the enricher's route cache.
type Fetcher struct {
	source   adsb.DataSource
	enricher *Enricher
	settings Settings
	logger   *slog.Logger

	// now is replaceable for tests
	now func() time.Time
}

// NewFetcher creates a Fetcher. enricher may be nil to skip route lookups.
func NewFetcher(source adsb.DataSource, enricher *Enricher, settings Settings, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.Retry.ShouldRetry == nil {
		settings.Retry.ShouldRetry = adsb.OnlyRateLimited
	}
	if settings.Retry.Logger == nil {
		settings.Retry.Logger = logger
	}
	return &Fetcher{
		source:   source,
		enricher: enricher,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot fetches aircraft around the resolved observer point and returns
// them as ordered, enriched flights.
//
// Snapshot never fails: if the live-position provider cannot be reached or
// returns garbage, the failure is logged and an empty list is returned.
// Caller cancellation does not abort outbound calls; each call is bounded
// by its own client timeout.
func (f *Fetcher) Snapshot(ctx context.Context, q Query) []Flight {
	ctx = context.WithoutCancel(ctx)

	center := f.ResolveCenter(q)
	radiusNM := f.ResolveRadiusNM(q)

	records, err := adsb.RetryWithBackoff(ctx, f.settings.Retry, func() ([]adsb.Record, error) {
		return f.source.Point(ctx, center.Latitude, center.Longitude, radiusNM)
	})
	if err != nil {
		f.logger.Warn("live position fetch failed",
			"err", err,
			"lat", center.Latitude,
			"lon", center.Longitude,
			"radius_nm", radiusNM)
		return []Flight{}
	}

	flights := Normalize(records, center, f.now())
	SortFlights(flights)

	if f.enricher != nil {
		f.enricher.Enrich(ctx, flights)
	}

	f.logger.Debug("snapshot built",
		"aircraft", len(records),
		"flights", len(flights),
		"radius_nm", radiusNM)

	return flights
}

// ResolveCenter returns the override point when both coordinates parse,
// otherwise the configured default. The pair is never mixed.
func (f *Fetcher) ResolveCenter(q Query) coordinates.Geographic {
	lat, latOK := parseCoordinate(q.CenterLat, 90)
	lon, lonOK := parseCoordinate(q.CenterLon, 180)
	if latOK && lonOK {
		return coordinates.Geographic{Latitude: lat, Longitude: lon}
	}
	return f.settings.Center
}

// ResolveRadiusNM returns the override radius when it parses, otherwise
// the configured kilometer radius converted to nautical miles. The result
// is clamped to [MinRadiusNM, MaxRadiusNM].
func (f *Fetcher) ResolveRadiusNM(q Query) float64 {
	radius, ok := parseFinite(q.RadiusNM)
	if !ok {
		km := f.settings.RadiusKm
		if math.IsNaN(km) || math.IsInf(km, 0) {
			km = fallbackRadiusKm
		}
		radius = coordinates.KmToNauticalMiles(km)
	}
	return ClampRadiusNM(radius)
}

// ClampRadiusNM limits a radius to [MinRadiusNM, MaxRadiusNM].
func ClampRadiusNM(nm float64) float64 {
	return math.Min(math.Max(nm, MinRadiusNM), MaxRadiusNM)
}

// Normalize converts raw feed entries into flights positioned relative to
// center. Entries without a callsign or without a full position are
// dropped. Every flight is stamped with the same time.
func Normalize(records []adsb.Record, center coordinates.Geographic, now time.Time) []Flight {
	flights := make([]Flight, 0, len(records))

	for _, rec := range records {
		callsign, ok := rec.Callsign()
		if !ok {
			continue
		}
		lat, lon, ok := rec.Position()
		if !ok {
			continue
		}

		pos := coordinates.Geographic{Latitude: lat, Longitude: lon}
		fl := Flight{
			Callsign:   callsign,
			DistanceKm: ptr(coordinates.DistanceKm(center, pos)),
			BearingDeg: ptr(coordinates.Bearing(center, pos)),
			UpdatedAt:  now,
		}

		if name, ok := classify.Operator(callsign); ok {
			fl.Airline = &name
		}
		if typ, ok := classify.AircraftType(rec); ok {
			fl.AircraftType = &typ
		}

		// Motion fields: alt_baro may be "ground", which is not a number.
		if alt, ok := intNumber(rec, "alt_baro"); ok {
			fl.AltitudeFt = ptr(alt)
		}
		if gs, ok := rec.Number("gs"); ok {
			fl.GroundSpeed = ptr(gs)
		}
		if rate, ok := intNumber(rec, "baro_rate"); ok {
			fl.BaroRate = ptr(rate)
		}

		flights = append(flights, fl)
	}

	return flights
}

// intNumber reads a numeric field as an int. Values outside the int
// range are treated as absent.
func intNumber(rec adsb.Record, key string) (int, bool) {
	v, ok := rec.Number(key)
	if !ok || v < math.MinInt || v >= -math.MinInt {
		return 0, false
	}
	return int(v), true
}

func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseCoordinate(s string, limit float64) (float64, bool) {
	v, ok := parseFinite(s)
	if !ok || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}
