package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data sources.
	IncidentCSVPath     string
	IncidentCSVSkipRows int
	InterchangePath     string
	RoutePath           string
	CutSegmentsPath     string // non-empty switches resolution to the pre-cut variant

	// Resolution tuning.
	DistanceThresholdM float64

	// Nominatim geocoding for map navigation search.
	NominatimEnabled   bool
	NominatimURL       string
	NominatimUserAgent string
	NominatimTimeout   time.Duration
	NominatimCacheSize int
}

// PrecutMode reports whether the pre-cut segment variant is configured.
func (c *Config) PrecutMode() bool {
	return c.CutSegmentsPath != ""
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := parseDuration("NOMINATIM_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	skipRows, err := parseInt("INCIDENT_CSV_SKIP_ROWS", 2)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("NOMINATIM_CACHE_SIZE", 500)
	if err != nil {
		return nil, err
	}
	threshold, err := parseFloat("DISTANCE_THRESHOLD_M", 3000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		IncidentCSVPath:     os.Getenv("INCIDENT_CSV"),
		IncidentCSVSkipRows: skipRows,
		InterchangePath:     os.Getenv("INTERCHANGE_GEOJSON"),
		RoutePath:           os.Getenv("ROUTE_GEOJSON"),
		CutSegmentsPath:     os.Getenv("CUT_SEGMENTS_GEOJSON"),

		DistanceThresholdM: threshold,

		NominatimEnabled:   os.Getenv("NOMINATIM_ENABLED") == "true",
		NominatimURL:       envOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: envOrDefault("NOMINATIM_USER_AGENT", "roadkill-map/1.0"),
		NominatimTimeout:   nominatimTimeout,
		NominatimCacheSize: cacheSize,
	}

	if cfg.IncidentCSVPath == "" {
		return nil, errors.New("INCIDENT_CSV is required")
	}
	if cfg.CutSegmentsPath == "" && (cfg.InterchangePath == "" || cfg.RoutePath == "") {
		return nil, errors.New("either CUT_SEGMENTS_GEOJSON or both INTERCHANGE_GEOJSON and ROUTE_GEOJSON are required")
	}
	if cfg.DistanceThresholdM <= 0 {
		return nil, errors.New("DISTANCE_THRESHOLD_M must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}
