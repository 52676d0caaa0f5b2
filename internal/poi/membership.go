package poi

import (
	"github.com/golang/geo/r2"

	"github.com/stuartshay/poi-visits/internal/calculator"
)

// Contains reports whether point lies in the closed disk of p's buffer.
// Boundary points are inside.
func Contains(point r2.Point, p POI) bool {
	if !calculator.IsFinite(point) {
		return false
	}
	return calculator.Distance(point, p.Center()) <= p.Radius
}

// MatchingPOIs returns the names of every POI whose buffer contains point,
// in registry order. Buffers may overlap, so more than one name is possible.
func (r *Registry) MatchingPOIs(point r2.Point) []string {
	var names []string
	for _, p := range r.pois {
		if Contains(point, p) {
			names = append(names, p.Name)
		}
	}
	return names
}
