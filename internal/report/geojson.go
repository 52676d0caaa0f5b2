package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/visits"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   lineString        `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type lineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type featureProperties struct {
	DeviceID        string  `json:"device_id"`
	POI             string  `json:"poi"`
	FirstSeen       string  `json:"first_seen"`
	LastSeen        string  `json:"last_seen"`
	DurationMinutes float64 `json:"duration_minutes"`
	LengthMeters    float64 `json:"length_m"`
	Points          int     `json:"points"`
}

// trajectoryFeatures converts every record with a path to a lon/lat LineString
func trajectoryFeatures(records []visits.VisitRecord, loc *time.Location) featureCollection {
	fc := featureCollection{Type: "FeatureCollection", Features: []feature{}}
	for _, r := range records {
		if r.NoPath {
			continue
		}
		coords := make([][2]float64, 0, len(r.Path))
		for _, p := range r.Path {
			coords = append(coords, [2]float64{p.Lon, p.Lat})
		}
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: lineString{Type: "LineString", Coordinates: coords},
			Properties: featureProperties{
				DeviceID:        r.DeviceID,
				POI:             r.POI,
				FirstSeen:       r.FirstSeen.In(loc).Format(time.RFC3339),
				LastSeen:        r.LastSeen.In(loc).Format(time.RFC3339),
				DurationMinutes: r.Duration.Minutes(),
				LengthMeters:    r.TrajectoryLength,
				Points:          len(r.Path),
			},
		})
	}
	return fc
}

func writeTrajectories(path string, records []visits.VisitRecord, loc *time.Location) error {
	fc := trajectoryFeatures(records, loc)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trajectories: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trajectories: %w", err)
	}

	log.Debug().Str("path", path).Int("features", len(fc.Features)).Msg("GeoJSON file written")
	return nil
}
