package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"

	"github.com/unklstewy/flightwall/internal/db"
	"github.com/unklstewy/flightwall/pkg/airports"
	"github.com/unklstewy/flightwall/pkg/config"
)

// Airport Index Builder
// Converts an FAA airport CSV into the airports.json index used for
// "center on airport", and optionally loads it into PostgreSQL.
//
// Expected CSV columns: ARPT_ID, ARPT_NAME, LAT_DECIMAL, LONG_DECIMAL
// (ELEV optional). FAA airport data is published with the 28-day NASR
// subscription:
// https://www.faa.gov/air_traffic/flight_info/aeronav/aero_data/NASR_Subscription/

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	csvPath := flag.String("csv", "airports_raw.csv", "FAA airport CSV to read")
	outPath := flag.String("out", "", "airports.json to write (default: airports.file from config)")
	toDB := flag.Bool("db", false, "Also upsert airports into the configured database")
	flag.Parse()

	log.Println("===========================================")
	log.Println("  Airport Index Builder")
	log.Println("===========================================")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *outPath == "" {
		*outPath = cfg.Airports.File
	}

	in, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	defer in.Close()

	list, stats, err := airports.BuildFromCSV(bufio.NewReader(in))
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	log.Printf("✓ Read %d rows: %d airports kept, %d skipped", stats.Rows, stats.Kept, stats.Skipped)

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *outPath, err)
	}
	if err := airports.WriteJSON(out, list); err != nil {
		out.Close()
		log.Fatalf("Failed to write index: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("Failed to close %s: %v", *outPath, err)
	}
	log.Printf("✓ Wrote %d airport codes to %s", len(list), *outPath)

	if !*toDB {
		return
	}

	// Import into database
	log.Println("\n===========================================")
	log.Println("Importing Airports")
	log.Println("===========================================")

	log.Println("Connecting to database...")
	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("✓ Database connected")

	ctx := context.Background()
	if err := database.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("✓ Schema initialized")

	repo := db.NewAirportRepository(database)
	n, err := repo.UpsertAll(ctx, list)
	if err != nil {
		log.Fatalf("Failed to import airports: %v", err)
	}
	log.Printf("✓ Imported %d airports", n)

	if stats, err := database.GetStats(ctx); err == nil {
		log.Printf("Total airports: %v (%v with elevation)", stats["airports"], stats["airports_with_elevation"])
	}
}
