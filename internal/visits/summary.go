package visits

import (
	"time"

	"github.com/stuartshay/poi-visits/internal/calculator"
	"github.com/stuartshay/poi-visits/internal/ping"
	"github.com/stuartshay/poi-visits/internal/poi"
)

// DatasetSummary describes the ungrouped dataset
type DatasetSummary struct {
	Pings     int
	Skipped   int
	Devices   int
	FirstSeen time.Time
	LastSeen  time.Time
}

// SummarizeDataset counts pings and devices and finds the covered time range
func SummarizeDataset(ds *ping.Dataset) DatasetSummary {
	s := DatasetSummary{
		Pings:   len(ds.Pings),
		Skipped: ds.SkippedCount(),
	}

	devices := make(map[string]struct{})
	for i, p := range ds.Pings {
		devices[p.DeviceID] = struct{}{}
		if i == 0 || p.Timestamp.Before(s.FirstSeen) {
			s.FirstSeen = p.Timestamp
		}
		if i == 0 || p.Timestamp.After(s.LastSeen) {
			s.LastSeen = p.Timestamp
		}
	}
	s.Devices = len(devices)

	return s
}

// POISummary describes the visits recorded at one POI
type POISummary struct {
	POI              string
	Visits           int
	Paths            int
	DurationMinutes  calculator.Metrics
	TrajectoryMeters calculator.Metrics
}

// SummarizePOIs returns one summary per registry POI, in registry order.
// Trajectory metrics only cover visits with a reconstructable path.
func SummarizePOIs(records []VisitRecord, registry *poi.Registry) []POISummary {
	durations := make(map[string][]float64)
	lengths := make(map[string][]float64)

	for _, r := range records {
		durations[r.POI] = append(durations[r.POI], r.Duration.Minutes())
		if !r.NoPath {
			lengths[r.POI] = append(lengths[r.POI], r.TrajectoryLength)
		}
	}

	out := make([]POISummary, 0, registry.Len())
	for _, name := range registry.Names() {
		out = append(out, POISummary{
			POI:              name,
			Visits:           len(durations[name]),
			Paths:            len(lengths[name]),
			DurationMinutes:  calculator.Describe(durations[name]),
			TrajectoryMeters: calculator.Describe(lengths[name]),
		})
	}
	return out
}
