// Package coordinates provides great-circle math for positions reported by
// ADS-B feeds. All positions use WGS84 decimal degrees.
package coordinates

import "math"

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's mean radius in kilometers
	EarthRadiusKm = 6371.0

	// KmPerNauticalMile is the fixed conversion between kilometers and nautical miles
	KmPerNauticalMile = 1.852
)

// Geographic represents a position on Earth's surface.
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64
}

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
// NaN is returned unchanged.
func NormalizeAzimuth(azimuth float64) float64 {
	az := math.Mod(azimuth, 360.0)
	if az < 0 {
		az += 360.0
	}
	// -tiny + 360 rounds to 360 in float64
	if az >= 360.0 {
		az = 0
	}
	return az
}

// DistanceKm calculates the great-circle distance between two points
// using the Haversine formula. Returns distance in kilometers.
//
// The result is symmetric, 0 for identical points, and about half the
// Earth's circumference for antipodal points.
func DistanceKm(from, to Geographic) float64 {
	lat1Rad := from.Latitude * DegreesToRadians
	lat2Rad := to.Latitude * DegreesToRadians

	dLat := (to.Latitude - from.Latitude) * DegreesToRadians
	dLon := (to.Longitude - from.Longitude) * DegreesToRadians

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceNauticalMiles calculates the great-circle distance between two points
// in nautical miles.
func DistanceNauticalMiles(from, to Geographic) float64 {
	return KmToNauticalMiles(DistanceKm(from, to))
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another
// along a great circle. Returns degrees in [0, 360), where 0 = North, 90 = East.
func Bearing(from, to Geographic) float64 {
	lat1 := from.Latitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	dLon := (to.Longitude - from.Longitude) * DegreesToRadians

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeAzimuth(math.Atan2(y, x) * RadiansToDegrees)
}

// KmToNauticalMiles converts kilometers to nautical miles.
func KmToNauticalMiles(km float64) float64 {
	return km / KmPerNauticalMile
}

// NauticalMilesToKm converts nautical miles to kilometers.
func NauticalMilesToKm(nm float64) float64 {
	return nm * KmPerNauticalMile
}

// Cardinal converts a bearing in degrees to a 16-point compass direction.
func Cardinal(bearing float64) string {
	directions := []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}
	if math.IsNaN(bearing) {
		return ""
	}
	index := int((NormalizeAzimuth(bearing) + 11.25) / 22.5)
	return directions[index%16]
}
