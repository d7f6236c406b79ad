package main

import (
	"context"
	"flag"
	"log"

	"github.com/unklstewy/flightwall/internal/app"
	"github.com/unklstewy/flightwall/internal/logging"
	"github.com/unklstewy/flightwall/pkg/config"
	"github.com/unklstewy/flightwall/pkg/coordinates"
	"github.com/unklstewy/flightwall/pkg/flights"
)

// main is a test program to verify the live-position and route providers.
// It takes one snapshot around the configured center (or the -lat/-lon
// override) and prints every flight with its range and bearing.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	lat := flag.String("lat", "", "Center latitude override")
	lon := flag.String("lon", "", "Center longitude override")
	radius := flag.String("radius", "", "Radius override in nautical miles")
	flag.Parse()

	log.Println("ADS-B Data Source Test")
	log.Println("=====================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.Logging.Level = "debug"
	logger := logging.New(cfg.Logging)
	defer logger.Close()
	fetcher := app.NewFetcher(cfg, logger.Logger)

	q := flights.Query{CenterLat: *lat, CenterLon: *lon, RadiusNM: *radius}
	center := fetcher.ResolveCenter(q)
	radiusNM := fetcher.ResolveRadiusNM(q)

	log.Printf("Center: %.4f, %.4f", center.Latitude, center.Longitude)
	log.Printf("Fetching aircraft within %.1f nm...", radiusNM)

	list := fetcher.Snapshot(context.Background(), q)

	log.Printf("Found %d flights", len(list))
	log.Println("=====================================")

	for i, fl := range list {
		log.Printf("Flight %d: %s", i+1, fl.Callsign)
		log.Printf("  Operator:  %s", orDash(fl.Airline))
		log.Printf("  Type:      %s", orDash(fl.AircraftType))
		log.Printf("  Route:     %s → %s", orDash(fl.Origin), orDash(fl.Destination))
		if fl.AltitudeFt != nil {
			log.Printf("  Altitude:  %d ft", *fl.AltitudeFt)
		}
		if fl.DistanceKm != nil && fl.BearingDeg != nil {
			log.Printf("  Range:     %.1f nm %s (%.0f°)",
				coordinates.KmToNauticalMiles(*fl.DistanceKm),
				coordinates.Cardinal(*fl.BearingDeg),
				*fl.BearingDeg)
		}
		if fl.GroundSpeed != nil {
			log.Printf("  Speed:     %.0f kts", *fl.GroundSpeed)
		}
		log.Println()
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
