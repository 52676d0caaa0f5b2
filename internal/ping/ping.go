// Package ping defines device location pings and their one-time enrichment
// with projected coordinates.
package ping

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/calculator"
	"github.com/stuartshay/poi-visits/internal/projection"
)

// MaxTimestamp is the last epoch second accepted (9999-12-31T23:59:59Z)
const MaxTimestamp = 253402300799

// Raw is a ping as supplied by ingestion
type Raw struct {
	DeviceID  string
	Timestamp float64 // epoch seconds
	Longitude float64
	Latitude  float64
}

// Ping is a validated ping with projected coordinates. Pings are never
// mutated after Project returns them.
type Ping struct {
	Seq       int // ingestion order
	DeviceID  string
	Timestamp time.Time
	Lon       float64
	Lat       float64
	X         float64
	Y         float64
}

// Position returns the projected position
func (p Ping) Position() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Valid reports whether the projected position is usable
func (p Ping) Valid() bool {
	return calculator.IsFinite(p.Position())
}

// DataQualityError describes a single ping excluded from the analysis
type DataQualityError struct {
	Index    int
	DeviceID string
	Field    string
	Reason   string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("ping %d (device %q): invalid %s: %s", e.Index, e.DeviceID, e.Field, e.Reason)
}

// Dataset is the ungrouped set of projected pings of one run
type Dataset struct {
	Pings   []Ping
	Skipped []DataQualityError
}

// SkippedCount returns how many input pings were excluded
func (d *Dataset) SkippedCount() int {
	return len(d.Skipped)
}

// Project validates and projects raw pings, preserving ingestion order.
// Invalid pings are recorded in Dataset.Skipped and never abort the run.
func Project(raws []Raw, proj projection.Projector) *Dataset {
	ds := &Dataset{Pings: make([]Ping, 0, len(raws))}

	for i, raw := range raws {
		p, dqErr := project(i, raw, proj)
		if dqErr != nil {
			log.Warn().
				Int("index", dqErr.Index).
				Str("device_id", dqErr.DeviceID).
				Str("field", dqErr.Field).
				Str("reason", dqErr.Reason).
				Msg("Skipping ping with invalid data")
			ds.Skipped = append(ds.Skipped, *dqErr)
			continue
		}
		ds.Pings = append(ds.Pings, p)
	}

	if len(ds.Skipped) > 0 {
		log.Info().
			Int("pings", len(ds.Pings)).
			Int("skipped", len(ds.Skipped)).
			Msg("Pings projected with data quality exclusions")
	}

	return ds
}

func project(i int, raw Raw, proj projection.Projector) (Ping, *DataQualityError) {
	fail := func(field, reason string) (Ping, *DataQualityError) {
		return Ping{}, &DataQualityError{Index: i, DeviceID: raw.DeviceID, Field: field, Reason: reason}
	}

	if raw.DeviceID == "" {
		return fail("device_id", "empty")
	}
	if math.IsNaN(raw.Timestamp) || math.IsInf(raw.Timestamp, 0) ||
		raw.Timestamp < 0 || raw.Timestamp > MaxTimestamp {
		return fail("timestamp", fmt.Sprintf("not a valid epoch second: %v", raw.Timestamp))
	}
	if math.IsNaN(raw.Longitude) || raw.Longitude < -180 || raw.Longitude > 180 {
		return fail("longitude", fmt.Sprintf("out of range: %v", raw.Longitude))
	}
	if math.IsNaN(raw.Latitude) || raw.Latitude < -90 || raw.Latitude > 90 {
		return fail("latitude", fmt.Sprintf("out of range: %v", raw.Latitude))
	}

	x, y := proj.Project(raw.Longitude, raw.Latitude)
	p := Ping{
		Seq:       i,
		DeviceID:  raw.DeviceID,
		Timestamp: time.Unix(int64(math.Floor(raw.Timestamp)), 0).UTC(),
		Lon:       raw.Longitude,
		Lat:       raw.Latitude,
		X:         x,
		Y:         y,
	}
	if !p.Valid() {
		return fail("position", "projection is not finite")
	}

	return p, nil
}
