package classify

import "strings"

// unknownTypeSentinel is what some feeds put in the type field when the
// aircraft type could not be determined.
const unknownTypeSentinel = "adsb_icao"

// typeKeys are the alternative field names carrying the aircraft type,
// in priority order.
var typeKeys = []string{"t", "type", "icao_type", "mdl"}

// StringField is implemented by raw upstream records that can expose a
// string-valued field by name.
type StringField interface {
	String(key string) (string, bool)
}

// AircraftType returns the aircraft type of a raw record.
// The first candidate field holding a non-blank string other than the
// unknown-type sentinel wins. The value is returned trimmed.
func AircraftType(rec StringField) (string, bool) {
	for _, key := range typeKeys {
		v, ok := rec.String(key)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, unknownTypeSentinel) {
			continue
		}
		return v, true
	}
	return "", false
}
