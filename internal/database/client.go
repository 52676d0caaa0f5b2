// Package database provides PostgreSQL client functionality for loading
// OwnTracks location pings with connection pooling and health checks.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/ping"
)

// Client wraps a PostgreSQL database connection
type Client struct {
	db *sql.DB
}

// NewClient creates a new database client with connection pooling
func NewClient(dsn string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (also failed to close: %w)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// pingQuery builds the ping query for an inclusive date range (YYYY-MM-DD)
// with an optional device filter
func pingQuery(startDate, endDate, deviceID string) (string, []interface{}) {
	query := `
		SELECT
			device_id, EXTRACT(EPOCH FROM timestamp)::double precision AS timestamp,
			latitude, longitude
		FROM public.locations
		WHERE timestamp >= $1::date AND timestamp < $2::date + interval '1 day'
	`

	args := []interface{}{startDate, endDate}

	if deviceID != "" {
		query += " AND device_id = $3"
		args = append(args, deviceID)
	}

	query += " ORDER BY timestamp ASC, id ASC"

	return query, args
}

// LoadPings retrieves raw pings between startDate and endDate inclusive.
// An empty endDate means the single day startDate. NULL columns become NaN
// or empty values so that projection reports them as data quality errors.
func (c *Client) LoadPings(ctx context.Context, startDate, endDate, deviceID string) ([]ping.Raw, error) {
	if startDate == "" {
		return nil, fmt.Errorf("start date is required")
	}
	if endDate == "" {
		endDate = startDate
	}

	query, args := pingQuery(startDate, endDate, deviceID)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }() // nolint:errcheck // Close in defer, error not actionable

	var raws []ping.Raw
	for rows.Next() {
		var device sql.NullString
		var timestamp, latitude, longitude sql.NullFloat64

		if err := rows.Scan(&device, &timestamp, &latitude, &longitude); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		raws = append(raws, toRaw(device, timestamp, latitude, longitude))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	log.Debug().
		Str("start_date", startDate).
		Str("end_date", endDate).
		Str("device_id", deviceID).
		Int("pings", len(raws)).
		Msg("Pings loaded from database")

	return raws, nil
}

// toRaw converts nullable columns to a Raw ping
func toRaw(device sql.NullString, timestamp, latitude, longitude sql.NullFloat64) ping.Raw {
	return ping.Raw{
		DeviceID:  device.String,
		Timestamp: nullFloat(timestamp),
		Latitude:  nullFloat(latitude),
		Longitude: nullFloat(longitude),
	}
}

func nullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// GetDevices returns a list of unique device IDs from the database
func (c *Client) GetDevices(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT device_id
		FROM public.locations
		WHERE device_id IS NOT NULL
		ORDER BY device_id
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }() // nolint:errcheck // Close in defer, error not actionable

	var devices []string
	for rows.Next() {
		var deviceID string
		if err := rows.Scan(&deviceID); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		devices = append(devices, deviceID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return devices, nil
}

// HealthCheck verifies database connectivity
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
