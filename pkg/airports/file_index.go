package airports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
)

// FileIndex is an in-memory airport index loaded from airports.json.
// It is read-only after construction and safe for concurrent use.
type FileIndex struct {
	airports map[string]Airport
}

// ParseIndex reads the JSON index format:
//
//	{"DTW": {"lat": 42.212, "lon": -83.353, "name": "DETROIT METRO"}, ...}
//
// Entries that are not objects are skipped.
func ParseIndex(r io.Reader) (*FileIndex, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid airports index: %w", err)
	}
	if raw == nil {
		return nil, errors.New("invalid airports index: not an object")
	}

	idx := &FileIndex{airports: make(map[string]Airport, len(raw))}
	for code, msg := range raw {
		var fields map[string]any
		if err := json.Unmarshal(msg, &fields); err != nil || fields == nil {
			continue
		}
		code = NormalizeCode(code)
		if code == "" {
			continue
		}
		idx.airports[code] = airportFromFields(code, fields)
	}

	return idx, nil
}

// LoadFile loads the index at path. A missing or unreadable file is not
// fatal: it is logged and an empty index is returned, which disables
// airport lookup.
func LoadFile(path string, logger *slog.Logger) *FileIndex {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("airports index not found, airport lookup disabled", "path", path)
		} else {
			logger.Warn("failed to open airports index", "path", path, "err", err)
		}
		return NewFileIndex(nil)
	}
	defer f.Close()

	idx, err := ParseIndex(f)
	if err != nil {
		logger.Warn("failed to load airports index", "path", path, "err", err)
		return NewFileIndex(nil)
	}

	logger.Info("loaded airports index", "path", path, "airports", idx.Len())
	return idx
}

// NewFileIndex builds an index from airports already in memory.
func NewFileIndex(list []Airport) *FileIndex {
	idx := &FileIndex{airports: make(map[string]Airport, len(list))}
	for _, apt := range list {
		code := NormalizeCode(apt.Code)
		if code == "" {
			continue
		}
		apt.Code = code
		idx.airports[code] = apt
	}
	return idx
}

// Lookup implements Index.
func (x *FileIndex) Lookup(ctx context.Context, code string) (*Airport, error) {
	apt, ok := x.airports[NormalizeCode(code)]
	if !ok {
		return nil, nil
	}
	return &apt, nil
}

// Len returns the number of indexed airports.
func (x *FileIndex) Len() int {
	return len(x.airports)
}

// Airports returns every indexed airport ordered by code.
func (x *FileIndex) Airports() []Airport {
	list := make([]Airport, 0, len(x.airports))
	for _, apt := range x.airports {
		list = append(list, apt)
	}
	slices.SortFunc(list, func(a, b Airport) int {
		switch {
		case a.Code < b.Code:
			return -1
		case a.Code > b.Code:
			return 1
		}
		return 0
	})
	return list
}

func airportFromFields(code string, fields map[string]any) Airport {
	apt := Airport{Code: code}

	if name, ok := fields["name"].(string); ok {
		apt.Name = name
	}
	if lat, ok := numberValue(fields["lat"]); ok {
		apt.Lat = &lat
	}
	if lon, ok := numberValue(fields["lon"]); ok {
		apt.Lon = &lon
	}
	for _, key := range elevationKeys {
		if elev, ok := numberValue(fields[key]); ok {
			apt.ElevFt = &elev
			break
		}
	}

	return apt
}
