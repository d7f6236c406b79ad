package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}

	// Database defaults
	if cfg.Database.Enabled {
		t.Error("Expected database disabled by default")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}

	// Observer defaults
	if cfg.Observer.Latitude != 42.2123 || cfg.Observer.Longitude != -83.3534 {
		t.Errorf("Expected DTW-area center, got %f, %f", cfg.Observer.Latitude, cfg.Observer.Longitude)
	}
	if cfg.Observer.RadiusKm != 130 {
		t.Errorf("Expected radius 130 km, got %f", cfg.Observer.RadiusKm)
	}

	// Provider defaults
	if cfg.ADSB.BaseURL != "https://api.airplanes.live/v2" {
		t.Errorf("Expected airplanes.live base URL, got %s", cfg.ADSB.BaseURL)
	}
	if cfg.ADSB.Timeout() != 10*time.Second {
		t.Errorf("Expected 10s ADS-B timeout, got %v", cfg.ADSB.Timeout())
	}
	if cfg.RouteLookup.BaseURL != "https://api.adsbdb.com/v0" {
		t.Errorf("Expected adsbdb base URL, got %s", cfg.RouteLookup.BaseURL)
	}
	if cfg.RouteLookup.Timeout() != 5*time.Second {
		t.Errorf("Expected 5s route timeout, got %v", cfg.RouteLookup.Timeout())
	}
	if !cfg.RouteLookup.Enabled {
		t.Error("Expected route lookup enabled by default")
	}
	if cfg.RouteLookup.MaxNewPerCycle != 2 {
		t.Errorf("Expected 2 new lookups per cycle, got %d", cfg.RouteLookup.MaxNewPerCycle)
	}
	if cfg.RouteLookup.CacheSize != 0 {
		t.Errorf("Expected unbounded route cache, got size %d", cfg.RouteLookup.CacheSize)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

// TestLoadNonExistentFile tests that Load returns default config when file doesn't exist.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	if cfg.Server.Port != "8080" {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadPartialConfig tests that values missing from the file keep their defaults.
func TestLoadPartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	data := `{"observer": {"latitude": 33.6407, "longitude": -84.4277, "radius_km": 80, "label": "ATL"}}`
	if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Observer.Latitude != 33.6407 {
		t.Errorf("Expected latitude 33.6407, got %f", cfg.Observer.Latitude)
	}
	if cfg.Observer.RadiusKm != 80 {
		t.Errorf("Expected radius 80, got %f", cfg.Observer.RadiusKm)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port kept, got %s", cfg.Server.Port)
	}
	if cfg.RouteLookup.MaxNewPerCycle != 2 {
		t.Errorf("Expected default budget kept, got %d", cfg.RouteLookup.MaxNewPerCycle)
	}
}

// TestLoadInvalidJSON tests error handling for malformed JSON.
func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

// TestSaveConfig tests saving configuration to file.
func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dir", "config.json")

	cfg := DefaultConfig()
	cfg.Server.Port = "9999"
	cfg.Observer.Label = "Test Save"
	cfg.RouteLookup.CacheSize = 500

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", loaded.Server.Port)
	}
	if loaded.Observer.Label != "Test Save" {
		t.Errorf("Expected label 'Test Save', got %s", loaded.Observer.Label)
	}
	if loaded.RouteLookup.CacheSize != 500 {
		t.Errorf("Expected cache size 500, got %d", loaded.RouteLookup.CacheSize)
	}
}

// TestEnvironmentOverrides tests environment variable overrides.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FLIGHTWALL_CENTER_LAT", "40.6413")
	t.Setenv("FLIGHTWALL_CENTER_LON", "-73.7781")
	t.Setenv("FLIGHTWALL_RADIUS_KM", "75.5")
	t.Setenv("FLIGHTWALL_CENTER_LABEL", "JFK")
	t.Setenv("FLIGHTWALL_ADSB_API_KEY", "env-adsb-key")
	t.Setenv("FLIGHTWALL_ADSB_BASE_URL", "https://adsb.example.com/v2/")
	t.Setenv("FLIGHTWALL_ADSBDB_BASE_URL", "https://routes.example.com/v0")
	t.Setenv("FLIGHTWALL_ROUTE_LOOKUP", "FALSE")
	t.Setenv("FLIGHTWALL_ROUTE_MAX_NEW_PER_CYCLE", "5")
	t.Setenv("FLIGHTWALL_PORT", "7777")
	t.Setenv("FLIGHTWALL_DB_HOST", "env-db-host")
	t.Setenv("FLIGHTWALL_DB_PASSWORD", "env-password")
	t.Setenv("FLIGHTWALL_AIRPORTS_FILE", "/data/airports.json")
	t.Setenv("FLIGHTWALL_LOG_LEVEL", "debug")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	testCfg := DefaultConfig()
	testCfg.Database.Password = "original-password"
	data, _ := json.Marshal(testCfg)
	os.WriteFile(configPath, data, 0644)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Observer.Latitude != 40.6413 || cfg.Observer.Longitude != -73.7781 {
		t.Errorf("Expected center from env, got %f, %f", cfg.Observer.Latitude, cfg.Observer.Longitude)
	}
	if cfg.Observer.RadiusKm != 75.5 {
		t.Errorf("Expected radius 75.5 from env, got %f", cfg.Observer.RadiusKm)
	}
	if cfg.Observer.Label != "JFK" {
		t.Errorf("Expected label JFK from env, got %s", cfg.Observer.Label)
	}
	if cfg.ADSB.APIKey != "env-adsb-key" {
		t.Errorf("Expected ADS-B API key from env, got %s", cfg.ADSB.APIKey)
	}
	if cfg.ADSB.BaseURL != "https://adsb.example.com/v2" {
		t.Errorf("Expected trimmed ADS-B base URL, got %s", cfg.ADSB.BaseURL)
	}
	if cfg.RouteLookup.BaseURL != "https://routes.example.com/v0" {
		t.Errorf("Expected adsbdb base URL from env, got %s", cfg.RouteLookup.BaseURL)
	}
	if cfg.RouteLookup.Enabled {
		t.Error("Expected route lookup disabled from env")
	}
	if cfg.RouteLookup.MaxNewPerCycle != 5 {
		t.Errorf("Expected budget 5 from env, got %d", cfg.RouteLookup.MaxNewPerCycle)
	}
	if cfg.Server.Port != "7777" {
		t.Errorf("Expected port 7777 from env, got %s", cfg.Server.Port)
	}
	if cfg.Database.Host != "env-db-host" {
		t.Errorf("Expected env-db-host from env, got %s", cfg.Database.Host)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected env-password from env, got %s", cfg.Database.Password)
	}
	if cfg.Airports.File != "/data/airports.json" {
		t.Errorf("Expected airports file from env, got %s", cfg.Airports.File)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug from env, got %s", cfg.Logging.Level)
	}
}

// TestEnvironmentOverridesIgnoreGarbage tests that unparseable numbers keep the configured value.
func TestEnvironmentOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("FLIGHTWALL_CENTER_LAT", "north")
	t.Setenv("FLIGHTWALL_RADIUS_KM", "")
	t.Setenv("FLIGHTWALL_ROUTE_MAX_NEW_PER_CYCLE", "two")
	t.Setenv("FLIGHTWALL_ROUTE_LOOKUP", "yes")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Observer.Latitude != 42.2123 {
		t.Errorf("Expected default latitude kept, got %f", cfg.Observer.Latitude)
	}
	if cfg.Observer.RadiusKm != 130 {
		t.Errorf("Expected default radius kept, got %f", cfg.Observer.RadiusKm)
	}
	if cfg.RouteLookup.MaxNewPerCycle != 2 {
		t.Errorf("Expected default budget kept, got %d", cfg.RouteLookup.MaxNewPerCycle)
	}
	// Only "true" enables lookups.
	if cfg.RouteLookup.Enabled {
		t.Error("Expected route lookup disabled for non-true value")
	}
}

// TestValidate tests configuration validation.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"latitude too high", func(c *Config) { c.Observer.Latitude = 91 }, "observer.latitude"},
		{"longitude too low", func(c *Config) { c.Observer.Longitude = -181 }, "observer.longitude"},
		{"zero radius", func(c *Config) { c.Observer.RadiusKm = 0 }, "observer.radius_km"},
		{"missing adsb url", func(c *Config) { c.ADSB.BaseURL = " " }, "adsb.base_url"},
		{"negative budget", func(c *Config) { c.RouteLookup.MaxNewPerCycle = -1 }, "max_new_per_cycle"},
		{"missing route url", func(c *Config) { c.RouteLookup.BaseURL = "" }, "route_lookup.base_url"},
		{"missing route url while disabled", func(c *Config) {
			c.RouteLookup.Enabled = false
			c.RouteLookup.BaseURL = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestCenterLabel tests the configured label and the coordinate fallback.
func TestCenterLabel(t *testing.T) {
	obs := ObserverConfig{Latitude: 42.2123, Longitude: -83.3534}
	if got := obs.CenterLabel(); got != "42.212, -83.353" {
		t.Errorf("Expected coordinate label, got %q", got)
	}

	obs.Label = "Home"
	if got := obs.CenterLabel(); got != "Home" {
		t.Errorf("Expected configured label, got %q", got)
	}
}

// TestDurations tests the duration helpers.
func TestDurations(t *testing.T) {
	a := ADSBConfig{TimeoutSeconds: 2.5, MinIntervalSeconds: 0}
	if a.Timeout() != 2500*time.Millisecond {
		t.Errorf("Expected 2.5s, got %v", a.Timeout())
	}
	if a.MinInterval() != 0 {
		t.Errorf("Expected no interval, got %v", a.MinInterval())
	}

	r := RouteLookupConfig{CacheTTLSeconds: 60}
	if r.CacheTTL() != time.Minute {
		t.Errorf("Expected 1m TTL, got %v", r.CacheTTL())
	}

	d := DisplayConfig{RefreshSeconds: 0}
	if d.RefreshInterval() != time.Second {
		t.Errorf("Expected refresh floor of 1s, got %v", d.RefreshInterval())
	}
}
