// Package airports resolves airport codes to observer centers.
//
// Airports come from a compact JSON index built offline from FAA airport
// data (see BuildFromCSV) or from the Postgres airport store.
package airports

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownAirport is returned when a code is not in the index.
	ErrUnknownAirport = errors.New("unknown airport code")

	// ErrMissingCoordinates is returned when an indexed airport has no
	// usable latitude or longitude.
	ErrMissingCoordinates = errors.New("airport record missing coordinates")
)

// Airport is one entry of the airport index.
type Airport struct {
	// Code is the upper-case FAA/IATA identifier (e.g., "DTW", "Y47")
	Code string

	// Name is the facility name, possibly empty
	Name string

	// Lat and Lon are decimal degrees. Either may be nil in a damaged index.
	Lat *float64
	Lon *float64

	// ElevFt is the field elevation in feet MSL, if known
	ElevFt *float64
}

// Index looks airports up by code.
type Index interface {
	// Lookup returns the airport for code, or nil with no error when the
	// code is unknown. Codes are matched case-insensitively.
	Lookup(ctx context.Context, code string) (*Airport, error)
}

// Center is an observer point derived from an airport.
type Center struct {
	Lat    float64  `json:"center_lat"`
	Lon    float64  `json:"center_lon"`
	Name   string   `json:"name"`
	Code   string   `json:"code"`
	Label  string   `json:"center_label"`
	ElevFt *float64 `json:"elev_ft"`
}

// ResolveCenter looks code up in idx and builds the display center.
// The label is "CODE – Name", or just "CODE" when the name is empty.
func ResolveCenter(ctx context.Context, idx Index, code string) (Center, error) {
	code = NormalizeCode(code)
	if code == "" {
		return Center{}, ErrUnknownAirport
	}

	apt, err := idx.Lookup(ctx, code)
	if err != nil {
		return Center{}, fmt.Errorf("failed to look up airport %s: %w", code, err)
	}
	if apt == nil {
		return Center{}, fmt.Errorf("%w: %s", ErrUnknownAirport, code)
	}
	if apt.Lat == nil || apt.Lon == nil {
		return Center{}, fmt.Errorf("%w: %s", ErrMissingCoordinates, code)
	}

	label := code
	if apt.Name != "" {
		label = code + " – " + apt.Name
	}

	return Center{
		Lat:    *apt.Lat,
		Lon:    *apt.Lon,
		Name:   apt.Name,
		Code:   code,
		Label:  label,
		ElevFt: apt.ElevFt,
	}, nil
}

// NormalizeCode trims and upper-cases an airport code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// elevationKeys are the field names different index builds have used for
// field elevation, in priority order.
var elevationKeys = []string{"elev_ft", "ELEV", "elev", "Elev", "ELEV_FT", "elevation", "ELEVATION"}

// numberValue accepts a JSON number or a numeric string.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
