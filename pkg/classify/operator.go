// Package classify maps raw ADS-B identifiers and records to human-readable
// operator names and aircraft types.
package classify

import (
	"strings"
	"unicode"
)

// GeneralAviation is the operator category for US civil registrations (N-numbers).
const GeneralAviation = "GA Aircraft"

// operators maps ICAO airline designators to display names.
var operators = map[string]string{
	"DAL": "Delta",
	"AAL": "American",
	"UAL": "United",
	"SWA": "Southwest",
	"JBU": "JetBlue",
	"NKS": "Spirit",
	"FFT": "Frontier",
	"ASA": "Alaska",
	"RPA": "Republic",
	"SKW": "SkyWest",
	"ENY": "Envoy",
	"GJS": "GoJet",
	"EJA": "NetJets",
	"EJM": "Executive Jet Management",
	"UPS": "UPS",
	"FDX": "FedEx",
	"JIA": "PSA",
	"PDT": "Piedmont",
	"CPZ": "Compass",
	"EDV": "Endeavor",
	"CJT": "CargoJet",
}

// Operator returns the operator name for a callsign.
//
// Callsigns that look like a US registration ("N" followed by a letter or
// digit) are reported as GeneralAviation. Otherwise the leading alphabetic
// run, up to three letters, is looked up in the designator table.
//
// Examples:
//
//	DAL2968 -> Delta
//	N447MM  -> GA Aircraft
//	XYZ123  -> "", false
func Operator(callsign string) (string, bool) {
	cs := strings.ToUpper(strings.TrimSpace(callsign))
	if cs == "" {
		return "", false
	}

	if isNNumber(cs) {
		return GeneralAviation, true
	}

	prefix := alphaPrefix(cs, 3)
	if prefix == "" {
		return "", false
	}

	name, ok := operators[prefix]
	return name, ok
}

func isNNumber(cs string) bool {
	r := []rune(cs)
	if len(r) < 2 || r[0] != 'N' {
		return false
	}
	return unicode.IsLetter(r[1]) || unicode.IsDigit(r[1])
}

// alphaPrefix returns the leading run of letters in s, at most limit runes long.
func alphaPrefix(s string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if !unicode.IsLetter(r) || n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
