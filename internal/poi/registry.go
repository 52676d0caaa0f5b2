// Package poi holds the points of interest of a run and decides which of their
// circular buffers contain a projected position.
package poi

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/calculator"
	"github.com/stuartshay/poi-visits/internal/projection"
)

// ErrInvalidRegistry is wrapped by every structural registry failure
var ErrInvalidRegistry = errors.New("invalid poi registry")

// projectionTolerance is the relative deviation between projected and
// great-circle distances above which the projection is reported as inconsistent
const projectionTolerance = 0.01

// NotFoundError is returned when looking up an unknown POI name
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("poi not found: %s", e.Name)
}

// Entry is a POI definition in geographic coordinates.
// A zero Radius means the registry's shared radius applies.
type Entry struct {
	Name   string
	Lon    float64
	Lat    float64
	Radius float64
}

// POI is a named location with a circular buffer in projected space
type POI struct {
	Name    string
	Lon     float64
	Lat     float64
	CenterX float64
	CenterY float64
	Radius  float64
}

// Center returns the projected center
func (p POI) Center() r2.Point {
	return r2.Point{X: p.CenterX, Y: p.CenterY}
}

// Registry is an immutable, insertion-ordered set of POIs
type Registry struct {
	pois   []POI
	byName map[string]int
}

// NewRegistry projects every entry and builds the registry. The registry
// cannot be modified afterwards.
func NewRegistry(entries []Entry, proj projection.Projector, radius float64) (*Registry, error) {
	if proj == nil {
		return nil, fmt.Errorf("%w: nil projector", ErrInvalidRegistry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no points of interest", ErrInvalidRegistry)
	}

	r := &Registry{
		pois:   make([]POI, 0, len(entries)),
		byName: make(map[string]int, len(entries)),
	}

	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty name", ErrInvalidRegistry, i)
		}
		if _, exists := r.byName[e.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidRegistry, e.Name)
		}

		rad := radius
		if e.Radius != 0 {
			rad = e.Radius
		}
		if !(rad > 0) || math.IsInf(rad, 0) {
			return nil, fmt.Errorf("%w: radius of %q must be > 0, got %v", ErrInvalidRegistry, e.Name, rad)
		}

		x, y := proj.Project(e.Lon, e.Lat)
		if !calculator.IsFinite(r2.Point{X: x, Y: y}) {
			return nil, fmt.Errorf("%w: center of %q does not project to a finite point", ErrInvalidRegistry, e.Name)
		}

		r.byName[e.Name] = len(r.pois)
		r.pois = append(r.pois, POI{
			Name:    e.Name,
			Lon:     e.Lon,
			Lat:     e.Lat,
			CenterX: x,
			CenterY: y,
			Radius:  rad,
		})
	}

	if !projection.IsIdentity(proj) {
		r.checkProjection()
	}

	return r, nil
}

// checkProjection warns when projected distances between POI centers drift
// from great-circle distances
func (r *Registry) checkProjection() {
	for i := 0; i < len(r.pois); i++ {
		for j := i + 1; j < len(r.pois); j++ {
			a, b := r.pois[i], r.pois[j]
			geo := calculator.GreatCircleMeters(a.Lon, a.Lat, b.Lon, b.Lat)
			if geo == 0 {
				continue
			}
			planar := calculator.Distance(a.Center(), b.Center())
			if math.Abs(planar-geo)/geo > projectionTolerance {
				log.Warn().
					Str("poi_a", a.Name).
					Str("poi_b", b.Name).
					Float64("projected_m", planar).
					Float64("great_circle_m", geo).
					Msg("Projected distance deviates from great-circle distance")
			}
		}
	}
}

// POIByName returns the POI with the given name or a *NotFoundError
func (r *Registry) POIByName(name string) (POI, error) {
	idx, ok := r.byName[name]
	if !ok {
		return POI{}, &NotFoundError{Name: name}
	}
	return r.pois[idx], nil
}

// All returns the POIs in insertion order. The slice is a copy.
func (r *Registry) All() []POI {
	out := make([]POI, len(r.pois))
	copy(out, r.pois)
	return out
}

// Names returns the POI names in insertion order
func (r *Registry) Names() []string {
	names := make([]string, len(r.pois))
	for i, p := range r.pois {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of POIs
func (r *Registry) Len() int {
	return len(r.pois)
}

// Index returns the insertion position of name, or -1
func (r *Registry) Index(name string) int {
	idx, ok := r.byName[name]
	if !ok {
		return -1
	}
	return idx
}

// Bounds returns the bounding rectangle of the named POI's buffer
func (r *Registry) Bounds(name string) (r2.Rect, error) {
	p, err := r.POIByName(name)
	if err != nil {
		return r2.EmptyRect(), err
	}
	size := r2.Point{X: 2 * p.Radius, Y: 2 * p.Radius}
	return r2.RectFromCenterSize(p.Center(), size), nil
}
