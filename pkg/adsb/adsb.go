// Package adsb talks to online ADS-B aggregators that expose the
// airplanes.live / ADSBexchange v2 JSON API.
package adsb

import (
	"context"
	"encoding/json"
	"math"
	"strings"
)

// Record is one raw aircraft entry from a provider's "ac" array.
//
// Feeds disagree on field names and types (altitude may be the string
// "ground", the type may live under "t" or "mdl"), so the entry is kept
// as decoded JSON and read through typed accessors.
type Record map[string]any

// String returns the string value stored under key.
// ok is false when the key is absent or not a JSON string.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// FirstString returns the first non-blank string among keys, trimmed.
func (r Record) FirstString(keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := r.String(key); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// Number returns the numeric value stored under key.
// Only JSON numbers count; strings such as "ground" and non-finite
// values report ok = false.
func (r Record) Number(key string) (float64, bool) {
	var f float64
	switch v := r[key].(type) {
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Callsign returns the flight identifier, which feeds publish as either
// "flight" or "callsign".
func (r Record) Callsign() (string, bool) {
	return r.FirstString("flight", "callsign")
}

// Position returns the reported latitude and longitude.
// ok is false unless both are present and numeric.
func (r Record) Position() (lat, lon float64, ok bool) {
	lat, latOK := r.Number("lat")
	lon, lonOK := r.Number("lon")
	if !latOK || !lonOK {
		return 0, 0, false
	}
	return lat, lon, true
}

// DataSource is the interface that live-position providers implement.
type DataSource interface {
	// Point returns the raw aircraft entries within radiusNM nautical miles
	// of centerLat/centerLon (decimal degrees).
	Point(ctx context.Context, centerLat, centerLon, radiusNM float64) ([]Record, error)
}
