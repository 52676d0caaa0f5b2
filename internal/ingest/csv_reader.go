// Package ingest reads raw device pings from CSV exports with the columns
// device_id, timestamp (epoch seconds), latitude and longitude.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/ping"
)

// Required CSV columns
const (
	ColDeviceID  = "device_id"
	ColTimestamp = "timestamp"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
)

const progressEvery = 100000

// CSVReader streams pings from CSV data
type CSVReader struct {
	r      io.Reader
	source string
}

// NewCSVReader creates a reader over r; source names the input in logs
func NewCSVReader(r io.Reader, source string) *CSVReader {
	return &CSVReader{r: r, source: source}
}

// ReadFile opens path and reads every ping from it
func ReadFile(ctx context.Context, path string) ([]ping.Raw, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }() // nolint:errcheck // read-only file

	return NewCSVReader(file, path).ReadAll(ctx)
}

// ReadAll reads the header and every row. Rows whose fields cannot be parsed
// are returned with NaN values so that projection accounts for them as data
// quality exclusions instead of dropping them here.
func (cr *CSVReader) ReadAll(ctx context.Context) ([]ping.Raw, error) {
	reader := csv.NewReader(cr.r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{ColDeviceID, ColTimestamp, ColLatitude, ColLongitude} {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var raws []ping.Raw
	startTime := time.Now()
	malformed := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warn().Err(err).Str("source", cr.source).Msg("Malformed CSV row")
				raws = append(raws, invalidRaw())
				malformed++
				continue
			}
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		raw, ok := parseRow(row, colMap)
		if !ok {
			malformed++
		}
		raws = append(raws, raw)

		if len(raws)%progressEvery == 0 {
			log.Debug().
				Str("source", cr.source).
				Int("rows", len(raws)).
				Dur("elapsed", time.Since(startTime)).
				Msg("Reading pings")
		}
	}

	log.Info().
		Str("source", cr.source).
		Int("rows", len(raws)).
		Int("malformed", malformed).
		Dur("elapsed", time.Since(startTime)).
		Msg("CSV pings loaded")

	return raws, nil
}

// parseRow converts a CSV row to a Raw ping; ok is false when any field was unusable
func parseRow(row []string, colMap map[string]int) (ping.Raw, bool) {
	ok := true
	field := func(col string) string {
		idx := colMap[col]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	number := func(col string) float64 {
		v, err := strconv.ParseFloat(field(col), 64)
		if err != nil {
			ok = false
			return math.NaN()
		}
		return v
	}

	raw := ping.Raw{
		DeviceID:  field(ColDeviceID),
		Timestamp: number(ColTimestamp),
		Latitude:  number(ColLatitude),
		Longitude: number(ColLongitude),
	}
	if raw.DeviceID == "" {
		ok = false
	}
	return raw, ok
}

func invalidRaw() ping.Raw {
	return ping.Raw{
		Timestamp: math.NaN(),
		Latitude:  math.NaN(),
		Longitude: math.NaN(),
	}
}
