package projection

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used by the local plane.
const EarthRadiusMeters = 6371000.0

// LocalPlane is an equirectangular projection tangent at Origin. Distances are
// accurate to well under a percent within a few kilometers of the origin.
type LocalPlane struct {
	Origin s2.LatLng

	cosLat float64
}

// NewLocalPlane returns a plane centered at (lon, lat).
func NewLocalPlane(lon, lat float64) (*LocalPlane, error) {
	origin := s2.LatLngFromDegrees(lat, lon)
	if !origin.IsValid() {
		return nil, fmt.Errorf("invalid local origin: lon=%f lat=%f", lon, lat)
	}
	return &LocalPlane{
		Origin: origin,
		cosLat: math.Cos(origin.Lat.Radians()),
	}, nil
}

// Project implements Projector.
func (p *LocalPlane) Project(lon, lat float64) (x, y float64) {
	dLng := s1.Angle(lon)*s1.Degree - p.Origin.Lng
	dLat := s1.Angle(lat)*s1.Degree - p.Origin.Lat
	return EarthRadiusMeters * dLng.Radians() * p.cosLat, EarthRadiusMeters * dLat.Radians()
}
