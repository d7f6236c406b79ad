package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents the complete application configuration.
// It is read once at startup and treated as immutable afterwards.
type Config struct {
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	Observer    ObserverConfig    `json:"observer"`
	ADSB        ADSBConfig        `json:"adsb"`
	RouteLookup RouteLookupConfig `json:"route_lookup"`
	Airports    AirportsConfig    `json:"airports"`
	Logging     LoggingConfig     `json:"logging"`
	Display     DisplayConfig     `json:"display"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// StaticDir holds index.html and the front-end assets
	StaticDir string `json:"static_dir"`

	// AllowedOrigins lists CORS origins for the JSON API
	AllowedOrigins []string `json:"allowed_origins"`
}

// DatabaseConfig contains database connection settings.
// The database is optional; when disabled the airport index is read from
// the JSON file named in AirportsConfig.
type DatabaseConfig struct {
	// Enabled switches the airport store to PostgreSQL
	Enabled bool `json:"enabled"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// ObserverConfig is the default center of the flight wall.
// Callers may override the center and radius per request.
type ObserverConfig struct {
	// Label is shown in place of the coordinates when set (e.g., "Home")
	Label string `json:"label"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude"`

	// RadiusKm is the default search radius in kilometers
	RadiusKm float64 `json:"radius_km"`
}

// ADSBConfig contains the live-position provider settings.
type ADSBConfig struct {
	// BaseURL is the API base URL (airplanes.live or a compatible /point API)
	BaseURL string `json:"base_url"`

	// APIKey is sent in the api-auth header when set
	APIKey string `json:"api_key,omitempty"`

	// TimeoutSeconds bounds each request
	TimeoutSeconds float64 `json:"timeout_seconds"`

	// MinIntervalSeconds is the minimum time between API calls.
	// 0 = no rate limit
	MinIntervalSeconds float64 `json:"min_interval_seconds"`

	// MaxRetries is how many times a rate-limited (429) fetch is retried.
	// 0 = single attempt
	MaxRetries int `json:"max_retries"`
}

// RouteLookupConfig contains the route provider (adsbdb) settings.
type RouteLookupConfig struct {
	// Enabled determines if flights get origin and destination filled in
	Enabled bool `json:"enabled"`

	// BaseURL is the adsbdb API base URL
	BaseURL string `json:"base_url"`

	// TimeoutSeconds bounds each lookup
	TimeoutSeconds float64 `json:"timeout_seconds"`

	// MaxNewPerCycle is how many uncached callsigns one snapshot may look up
	MaxNewPerCycle int `json:"max_new_per_cycle"`

	// RequestsPerSecond spaces lookups across all snapshots. 0 = unlimited
	RequestsPerSecond float64 `json:"requests_per_second"`

	// UserAgent is sent with every lookup
	UserAgent string `json:"user_agent"`

	// CacheSize bounds the route cache. 0 = unbounded for the process lifetime
	CacheSize int `json:"cache_size"`

	// CacheTTLSeconds expires cached routes. 0 = never (only with CacheSize > 0)
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
}

// AirportsConfig locates the airport index.
type AirportsConfig struct {
	// File is the airports.json index built by build-airports
	File string `json:"file"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level"`

	// File enables a rotating log file in addition to stderr
	File string `json:"file,omitempty"`

	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `json:"max_size_mb"`

	// MaxBackups is the number of rotated files kept
	MaxBackups int `json:"max_backups"`

	// MaxAgeDays is how long rotated files are kept
	MaxAgeDays int `json:"max_age_days"`

	// Compress gzips rotated files
	Compress bool `json:"compress"`
}

// DisplayConfig contains terminal wall settings.
type DisplayConfig struct {
	// RefreshSeconds is how often the terminal wall takes a new snapshot
	RefreshSeconds int `json:"refresh_seconds"`

	// MaxRows limits the number of flights shown. 0 = fit the terminal
	MaxRows int `json:"max_rows"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, the default configuration is used.
// Values present in the file replace defaults; environment variables
// are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Host:           "0.0.0.0",
			StaticDir:      "static",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "flightwall",
			Username:     "flightwall",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Observer: ObserverConfig{
			Latitude:  42.2123, // DTW area
			Longitude: -83.3534,
			RadiusKm:  130.0,
		},
		ADSB: ADSBConfig{
			BaseURL:            "https://api.airplanes.live/v2",
			TimeoutSeconds:     10,
			MinIntervalSeconds: 1,
			MaxRetries:         0,
		},
		RouteLookup: RouteLookupConfig{
			Enabled:           true,
			BaseURL:           "https://api.adsbdb.com/v0",
			TimeoutSeconds:    5,
			MaxNewPerCycle:    2,
			RequestsPerSecond: 5,
			UserAgent:         "flightwall-web/0.1",
		},
		Airports: AirportsConfig{
			File: "airports.json",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Display: DisplayConfig{
			RefreshSeconds: 10,
		},
	}
}

// Validate reports every setting that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if c.Observer.Latitude < -90 || c.Observer.Latitude > 90 {
		errs = append(errs, fmt.Errorf("observer.latitude %v out of range [-90, 90]", c.Observer.Latitude))
	}
	if c.Observer.Longitude < -180 || c.Observer.Longitude > 180 {
		errs = append(errs, fmt.Errorf("observer.longitude %v out of range [-180, 180]", c.Observer.Longitude))
	}
	if !(c.Observer.RadiusKm > 0) {
		errs = append(errs, fmt.Errorf("observer.radius_km must be positive, got %v", c.Observer.RadiusKm))
	}
	if strings.TrimSpace(c.ADSB.BaseURL) == "" {
		errs = append(errs, errors.New("adsb.base_url is required"))
	}
	if c.ADSB.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("adsb.max_retries must not be negative, got %d", c.ADSB.MaxRetries))
	}
	if c.RouteLookup.Enabled && strings.TrimSpace(c.RouteLookup.BaseURL) == "" {
		errs = append(errs, errors.New("route_lookup.base_url is required when route lookup is enabled"))
	}
	if c.RouteLookup.MaxNewPerCycle < 0 {
		errs = append(errs, fmt.Errorf("route_lookup.max_new_per_cycle must not be negative, got %d", c.RouteLookup.MaxNewPerCycle))
	}
	if c.RouteLookup.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("route_lookup.requests_per_second must not be negative, got %v", c.RouteLookup.RequestsPerSecond))
	}

	return errors.Join(errs...)
}

// CenterLabel returns the configured label, or the center coordinates
// formatted to three decimals.
func (o *ObserverConfig) CenterLabel() string {
	if label := strings.TrimSpace(o.Label); label != "" {
		return label
	}
	return fmt.Sprintf("%.3f, %.3f", o.Latitude, o.Longitude)
}

// Timeout returns the request timeout for the live-position provider.
func (a *ADSBConfig) Timeout() time.Duration {
	return seconds(a.TimeoutSeconds)
}

// MinInterval returns the minimum spacing between live-position requests.
func (a *ADSBConfig) MinInterval() time.Duration {
	return seconds(a.MinIntervalSeconds)
}

// Timeout returns the request timeout for route lookups.
func (r *RouteLookupConfig) Timeout() time.Duration {
	return seconds(r.TimeoutSeconds)
}

// CacheTTL returns how long cached routes live. 0 means forever.
func (r *RouteLookupConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// RefreshInterval returns the terminal wall refresh period, at least one second.
func (d *DisplayConfig) RefreshInterval() time.Duration {
	if d.RefreshSeconds < 1 {
		return time.Second
	}
	return time.Duration(d.RefreshSeconds) * time.Second
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows deployments to keep API keys and passwords out of config files.
// Numeric values that fail to parse are ignored.
func (c *Config) applyEnvironmentOverrides() {
	envFloat("FLIGHTWALL_CENTER_LAT", &c.Observer.Latitude)
	envFloat("FLIGHTWALL_CENTER_LON", &c.Observer.Longitude)
	envFloat("FLIGHTWALL_RADIUS_KM", &c.Observer.RadiusKm)
	if label, ok := os.LookupEnv("FLIGHTWALL_CENTER_LABEL"); ok {
		c.Observer.Label = label
	}

	if apiKey := os.Getenv("FLIGHTWALL_ADSB_API_KEY"); apiKey != "" {
		c.ADSB.APIKey = apiKey
	}
	if baseURL := os.Getenv("FLIGHTWALL_ADSB_BASE_URL"); baseURL != "" {
		c.ADSB.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if baseURL := os.Getenv("FLIGHTWALL_ADSBDB_BASE_URL"); baseURL != "" {
		c.RouteLookup.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if enabled, ok := os.LookupEnv("FLIGHTWALL_ROUTE_LOOKUP"); ok {
		c.RouteLookup.Enabled = strings.EqualFold(strings.TrimSpace(enabled), "true")
	}
	envInt("FLIGHTWALL_ROUTE_MAX_NEW_PER_CYCLE", &c.RouteLookup.MaxNewPerCycle)

	if port := os.Getenv("FLIGHTWALL_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbHost := os.Getenv("FLIGHTWALL_DB_HOST"); dbHost != "" {
		c.Database.Host = dbHost
	}
	if dbPassword := os.Getenv("FLIGHTWALL_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if file := os.Getenv("FLIGHTWALL_AIRPORTS_FILE"); file != "" {
		c.Airports.File = file
	}
	if level := os.Getenv("FLIGHTWALL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func envFloat(name string, dst *float64) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

func envInt(name string, dst *int) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
