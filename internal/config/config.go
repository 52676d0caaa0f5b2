// Package config provides application configuration management,
// loading settings from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/stuartshay/poi-visits/internal/poi"
	"github.com/stuartshay/poi-visits/internal/projection"
)

// DefaultPOIs are the Kuala Lumpur study areas: botanical garden, chinatown, petronas towers
const DefaultPOIs = "perdona:101.6847:3.1430,chinatown:101.6969:3.1428,petronas:101.7120:3.1579"

// Config holds all configuration for the application
type Config struct {
	// Service configuration
	ServiceName string
	Environment string
	GRPCPort    string
	HTTPPort    string

	// Database configuration
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string

	// Study areas
	POIs         []poi.Entry
	BufferRadius float64
	Projection   string

	// Hour-of-day extraction zone
	HourTimezone string
	Location     *time.Location

	// Input / output
	InputCSV   string
	OutputPath string

	// Workers
	QueueWorkers    int
	AnalysisWorkers int

	// OpenTelemetry configuration
	OTELEndpoint string
	OTELEnabled  bool

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "poi-visits"),
		Environment: getEnv("ENVIRONMENT", "development"),
		GRPCPort:    getEnv("GRPC_PORT", "50051"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),

		PostgresHost:     getEnv("POSTGRES_HOST", "192.168.1.175"),
		PostgresPort:     getEnv("POSTGRES_PORT", "6432"),
		PostgresDB:       getEnv("POSTGRES_DB", "owntracks"),
		PostgresUser:     getEnv("POSTGRES_USER", "development"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "development"),

		Projection:   getEnv("PROJECTION", "EPSG:32647"),
		HourTimezone: getEnv("HOUR_TIMEZONE", "UTC"),

		InputCSV:   getEnv("INPUT_CSV", "data/location_data.csv"),
		OutputPath: getEnv("OUTPUT_PATH", "/data/output"),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.BufferRadius, err = parseFloat("BUFFER_RADIUS_M", "500")
	if err != nil {
		return nil, fmt.Errorf("invalid BUFFER_RADIUS_M: %w", err)
	}
	if cfg.BufferRadius <= 0 {
		return nil, fmt.Errorf("invalid BUFFER_RADIUS_M: must be > 0, got %v", cfg.BufferRadius)
	}

	cfg.POIs, err = ParsePOIs(getEnv("POIS", DefaultPOIs))
	if err != nil {
		return nil, fmt.Errorf("invalid POIS: %w", err)
	}

	cfg.Location, err = time.LoadLocation(cfg.HourTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid HOUR_TIMEZONE: %w", err)
	}

	cfg.QueueWorkers, err = parseInt("QUEUE_WORKERS", "2")
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_WORKERS: %w", err)
	}

	cfg.AnalysisWorkers, err = parseInt("ANALYSIS_WORKERS", "4")
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_WORKERS: %w", err)
	}

	cfg.OTELEnabled, err = strconv.ParseBool(getEnv("OTEL_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_ENABLED: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresUser,
		c.PostgresPassword,
	)
}

// BuildRegistry resolves the configured projection and projects the POIs with it
func (c *Config) BuildRegistry() (projection.Projector, *poi.Registry, error) {
	proj, err := projection.Parse(c.Projection)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid PROJECTION: %w", err)
	}

	registry, err := poi.NewRegistry(c.POIs, proj, c.BufferRadius)
	if err != nil {
		return nil, nil, err
	}

	return proj, registry, nil
}

// ParsePOIs parses comma separated name:lon:lat[:radius] entries
func ParsePOIs(value string) ([]poi.Entry, error) {
	var entries []poi.Entry
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		parts := strings.Split(item, ":")
		if len(parts) != 3 && len(parts) != 4 {
			return nil, fmt.Errorf("entry %q: want name:lon:lat[:radius]", item)
		}

		e := poi.Entry{Name: strings.TrimSpace(parts[0])}
		if e.Name == "" {
			return nil, fmt.Errorf("entry %q: empty name", item)
		}

		var err error
		if e.Lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
			return nil, fmt.Errorf("entry %q: invalid longitude: %w", item, err)
		}
		if e.Lat, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err != nil {
			return nil, fmt.Errorf("entry %q: invalid latitude: %w", item, err)
		}
		if len(parts) == 4 {
			if e.Radius, err = strconv.ParseFloat(strings.TrimSpace(parts[3]), 64); err != nil {
				return nil, fmt.Errorf("entry %q: invalid radius: %w", item, err)
			}
			if e.Radius <= 0 {
				return nil, fmt.Errorf("entry %q: radius must be > 0", item)
			}
		}

		entries = append(entries, e)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no points of interest configured")
	}
	return entries, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseFloat parses a float64 from an environment variable or default value
func parseFloat(key, defaultValue string) (float64, error) {
	value := getEnv(key, defaultValue)
	return strconv.ParseFloat(value, 64)
}

// parseInt parses an int from an environment variable or default value
func parseInt(key, defaultValue string) (int, error) {
	value := getEnv(key, defaultValue)
	return strconv.Atoi(value)
}
