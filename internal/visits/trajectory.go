package visits

import (
	"cmp"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/calculator"
	"github.com/stuartshay/poi-visits/internal/ping"
)

// Trajectory is the ordered polyline through a group's pings
type Trajectory struct {
	Path     []ping.Ping // valid pings, sorted by timestamp
	Length   float64
	NoPath   bool // fewer than two usable points
	Excluded int  // pings dropped for invalid coordinates
}

// BuildTrajectory sorts pings by timestamp (ties keep ingestion order) and
// sums the distances between consecutive projected positions. Pings with
// invalid positions are left out of the polyline; they do not void the group.
func BuildTrajectory(key GroupKey, pings []ping.Ping) Trajectory {
	sorted := slices.Clone(pings)
	slices.SortStableFunc(sorted, func(a, b ping.Ping) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	tr := Trajectory{Path: make([]ping.Ping, 0, len(sorted))}
	points := make([]r2.Point, 0, len(sorted))

	for _, p := range sorted {
		if !p.Valid() {
			tr.Excluded++
			log.Warn().
				Int("seq", p.Seq).
				Str("device_id", key.DeviceID).
				Str("poi", key.POI).
				Msg("Excluding ping with invalid position from trajectory")
			continue
		}
		tr.Path = append(tr.Path, p)
		points = append(points, p.Position())
	}

	if len(points) < 2 {
		tr.NoPath = true
		log.Debug().
			Str("device_id", key.DeviceID).
			Str("poi", key.POI).
			Int("points", len(points)).
			Msg("No reconstructable trajectory")
		return tr
	}

	tr.Length = calculator.PathLength(points)
	return tr
}
