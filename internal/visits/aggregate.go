package visits

import (
	"time"

	"github.com/stuartshay/poi-visits/internal/ping"
)

// VisitRecord is the aggregate of one device at one POI
type VisitRecord struct {
	DeviceID  string
	POI       string
	FirstSeen time.Time
	LastSeen  time.Time
	Duration  time.Duration
	HourFirst int
	HourLast  int
	PingCount int

	TrajectoryLength float64
	NoPath           bool
	ExcludedPings    int
	Path             []ping.Ping
}

// BuildVisit aggregates a non-empty group into a VisitRecord. Hours are taken
// in loc; a nil loc means UTC.
func BuildVisit(g Group, loc *time.Location) VisitRecord {
	if loc == nil {
		loc = time.UTC
	}

	first, last := g.Pings[0].Timestamp, g.Pings[0].Timestamp
	for _, p := range g.Pings[1:] {
		if p.Timestamp.Before(first) {
			first = p.Timestamp
		}
		if p.Timestamp.After(last) {
			last = p.Timestamp
		}
	}

	tr := BuildTrajectory(g.Key, g.Pings)

	return VisitRecord{
		DeviceID:         g.Key.DeviceID,
		POI:              g.Key.POI,
		FirstSeen:        first,
		LastSeen:         last,
		Duration:         last.Sub(first),
		HourFirst:        first.In(loc).Hour(),
		HourLast:         last.In(loc).Hour(),
		PingCount:        len(g.Pings),
		TrajectoryLength: tr.Length,
		NoPath:           tr.NoPath,
		ExcludedPings:    tr.Excluded,
		Path:             tr.Path,
	}
}

// BuildVisits aggregates every group, skipping empty ones
func BuildVisits(groups []Group, loc *time.Location) []VisitRecord {
	out := make([]VisitRecord, 0, len(groups))
	for _, g := range groups {
		if len(g.Pings) == 0 {
			continue
		}
		out = append(out, BuildVisit(g, loc))
	}
	return out
}
