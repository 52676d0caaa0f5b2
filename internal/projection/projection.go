// Package projection maps WGS84 longitude/latitude pairs into a planar metric
// reference frame shared by points of interest and device pings.
package projection

import (
	"fmt"
	"strconv"
	"strings"
)

// Projector converts geographic coordinates (decimal degrees) into planar
// coordinates. Implementations must be deterministic.
type Projector interface {
	Project(lon, lat float64) (x, y float64)
}

// Func adapts a plain function to the Projector interface.
type Func func(lon, lat float64) (x, y float64)

// Project calls f(lon, lat).
func (f Func) Project(lon, lat float64) (x, y float64) {
	return f(lon, lat)
}

// Identity returns its input unchanged. Useful when coordinates are already planar.
var Identity Projector = identity{}

type identity struct{}

func (identity) Project(lon, lat float64) (x, y float64) {
	return lon, lat
}

// IsIdentity reports whether p leaves coordinates in their input units
func IsIdentity(p Projector) bool {
	_, ok := p.(identity)
	return ok
}

// Parse resolves a reference projection identifier.
//
// Supported forms:
//
//	EPSG:326NN     WGS 84 / UTM zone NN north
//	EPSG:327NN     WGS 84 / UTM zone NN south
//	UTM:NN[N|S]    same as above
//	LOCAL:lon,lat  equirectangular plane around an origin
//	IDENTITY       no projection
func Parse(id string) (Projector, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("empty projection identifier")
	}

	switch {
	case id == "IDENTITY":
		return Identity, nil

	case strings.HasPrefix(id, "EPSG:"):
		code, err := strconv.Atoi(strings.TrimPrefix(id, "EPSG:"))
		if err != nil {
			return nil, fmt.Errorf("invalid EPSG code %q: %w", id, err)
		}
		switch {
		case code > 32600 && code <= 32660:
			return NewUTM(code-32600, false)
		case code > 32700 && code <= 32760:
			return NewUTM(code-32700, true)
		}
		return nil, fmt.Errorf("unsupported EPSG code %d", code)

	case strings.HasPrefix(id, "UTM:"):
		zoneID := strings.TrimPrefix(id, "UTM:")
		south := false
		switch {
		case strings.HasSuffix(zoneID, "S"):
			south = true
			zoneID = strings.TrimSuffix(zoneID, "S")
		case strings.HasSuffix(zoneID, "N"):
			zoneID = strings.TrimSuffix(zoneID, "N")
		}
		zone, err := strconv.Atoi(zoneID)
		if err != nil {
			return nil, fmt.Errorf("invalid UTM zone in %q: %w", id, err)
		}
		return NewUTM(zone, south)

	case strings.HasPrefix(id, "LOCAL:"):
		parts := strings.Split(strings.TrimPrefix(id, "LOCAL:"), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid local origin in %q: want LOCAL:lon,lat", id)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid local origin longitude: %w", err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid local origin latitude: %w", err)
		}
		return NewLocalPlane(lon, lat)
	}

	return nil, fmt.Errorf("unknown projection identifier %q", id)
}
