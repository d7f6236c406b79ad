package airports

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// FAA airport CSV column names.
const (
	columnCode = "ARPT_ID"
	columnName = "ARPT_NAME"
	columnLat  = "LAT_DECIMAL"
	columnLon  = "LONG_DECIMAL"
	columnElev = "ELEV"
)

// BuildStats reports what BuildFromCSV did with the input rows.
type BuildStats struct {
	Rows    int
	Kept    int
	Skipped int
}

// BuildFromCSV reads an FAA-style airport CSV with ARPT_ID, ARPT_NAME,
// LAT_DECIMAL and LONG_DECIMAL columns (ELEV optional). Rows without a
// code or with unparsable coordinates are skipped. A later row for the
// same code replaces an earlier one.
func BuildFromCSV(r io.Reader) ([]Airport, BuildStats, error) {
	var stats BuildStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, errors.New("empty airport CSV")
		}
		return nil, stats, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{columnCode, columnLat, columnLon} {
		if _, ok := cols[required]; !ok {
			return nil, stats, fmt.Errorf("airport CSV missing column %s", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	byCode := make(map[string]int)
	var list []Airport

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read CSV row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		code := NormalizeCode(field(row, columnCode))
		if code == "" {
			stats.Skipped++
			continue
		}

		lat, latOK := parseDegrees(field(row, columnLat), 90)
		lon, lonOK := parseDegrees(field(row, columnLon), 180)
		if !latOK || !lonOK {
			stats.Skipped++
			continue
		}

		apt := Airport{
			Code: code,
			Name: field(row, columnName),
			Lat:  &lat,
			Lon:  &lon,
		}
		if elev, err := strconv.ParseFloat(field(row, columnElev), 64); err == nil && isFinite(elev) {
			apt.ElevFt = &elev
		}

		if i, seen := byCode[code]; seen {
			list[i] = apt
			continue
		}
		byCode[code] = len(list)
		list = append(list, apt)
	}

	stats.Kept = len(list)
	return list, stats, nil
}

// parseDegrees parses a finite coordinate within [-limit, limit].
// NaN and Inf parse without error but cannot be written as JSON.
func parseDegrees(s string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// indexEntry is the on-disk shape of one airport.
type indexEntry struct {
	Lat    float64  `json:"lat"`
	Lon    float64  `json:"lon"`
	Name   string   `json:"name"`
	ElevFt *float64 `json:"elev_ft,omitempty"`
}

// WriteJSON writes airports in the format ParseIndex reads. Airports
// without coordinates are left out.
func WriteJSON(w io.Writer, list []Airport) error {
	out := make(map[string]indexEntry, len(list))
	for _, apt := range list {
		if apt.Lat == nil || apt.Lon == nil {
			continue
		}
		out[NormalizeCode(apt.Code)] = indexEntry{
			Lat:    *apt.Lat,
			Lon:    *apt.Lon,
			Name:   apt.Name,
			ElevFt: apt.ElevFt,
		}
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("failed to write airports index: %w", err)
	}
	return nil
}
