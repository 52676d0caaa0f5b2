// Package calculator provides the distance math used by the visit pipeline:
// planar distances in a projected frame, polyline lengths, great-circle
// distances between geographic coordinates, and descriptive statistics.
package calculator

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusMeters is the Earth's mean radius in meters
	EarthRadiusMeters = 6371000.0
)

// Distance returns the Euclidean distance between two projected points
func Distance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// PathLength returns the length of the polyline through points, in order.
// Fewer than two points have no length.
func PathLength(points []r2.Point) float64 {
	var length float64
	for i := 1; i < len(points); i++ {
		length += Distance(points[i-1], points[i])
	}
	return length
}

// GreatCircleMeters calculates the great-circle distance between two
// geographic coordinates given in decimal degrees.
func GreatCircleMeters(lon1, lat1, lon2, lat2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// IsFinite reports whether both coordinates of p are finite numbers
func IsFinite(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Metrics holds descriptive statistics over a set of values
type Metrics struct {
	Count int
	Total float64
	Min   float64
	Max   float64
	Mean  float64
}

// Describe computes count, total, min, max and mean of values.
// An empty input yields zero Metrics.
func Describe(values []float64) Metrics {
	if len(values) == 0 {
		return Metrics{}
	}

	metrics := Metrics{
		Count: len(values),
		Min:   math.MaxFloat64,
		Max:   -math.MaxFloat64,
	}

	for _, v := range values {
		metrics.Total += v

		if v > metrics.Max {
			metrics.Max = v
		}
		if v < metrics.Min {
			metrics.Min = v
		}
	}

	metrics.Mean = metrics.Total / float64(len(values))

	return metrics
}
