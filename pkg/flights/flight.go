// Package flights builds the flight wall snapshot: it fetches aircraft
// around an observer, turns them into Flight records with distance,
// bearing, operator and type, orders them, and fills in routes.
package flights

import (
	"slices"
	"time"

	"github.com/unklstewy/flightwall/pkg/routes"
)

// Flight is one aircraft as shown on the wall.
// Optional fields are nil when the feed did not provide them.
type Flight struct {
	// Callsign is the trimmed flight identifier (e.g., "DAL2968")
	Callsign string `json:"callsign"`

	// Airline is the operator name derived from the callsign
	Airline *string `json:"airline"`

	// Origin and Destination are airport codes filled by route enrichment
	Origin      *string `json:"origin"`
	Destination *string `json:"destination"`

	// AircraftType is the ICAO type designator (e.g., "B738")
	AircraftType *string `json:"aircraft_type"`

	// AltitudeFt is barometric altitude in feet
	AltitudeFt *int `json:"altitude_ft"`

	// DistanceKm is the great-circle distance from the observer
	DistanceKm *float64 `json:"distance_km"`

	// BearingDeg is the initial bearing from the observer, [0, 360)
	BearingDeg *float64 `json:"bearing_deg"`

	// GroundSpeed in knots
	GroundSpeed *float64 `json:"gs"`

	// BaroRate is the vertical rate in feet per minute
	BaroRate *int `json:"baro_rate"`

	// UpdatedAt is when the snapshot containing this flight was computed
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRoute reports whether either side of the route is known.
func (f *Flight) HasRoute() bool {
	return f.Origin != nil || f.Destination != nil
}

// applyRoute copies a resolved route onto the flight.
func (f *Flight) applyRoute(r routes.Route) {
	f.Origin = optional(r.Origin)
	f.Destination = optional(r.Destination)
}

// missingDistance orders flights without a distance after every real one.
const missingDistance = 1e9

// SortFlights orders flights by ascending distance, breaking ties by
// descending altitude. Missing distances sort last and missing altitudes
// count as 0. The sort is stable.
func SortFlights(flights []Flight) {
	slices.SortStableFunc(flights, func(a, b Flight) int {
		da, db := valueOr(a.DistanceKm, missingDistance), valueOr(b.DistanceKm, missingDistance)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}

		aa, ab := valueOr(a.AltitudeFt, 0), valueOr(b.AltitudeFt, 0)
		switch {
		case aa > ab:
			return -1
		case aa < ab:
			return 1
		}
		return 0
	})
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

func ptr[T any](v T) *T {
	return &v
}

// optional returns nil for the empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
