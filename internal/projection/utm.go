package projection

import (
	"fmt"
	"math"
)

// WGS84 ellipsoid and UTM constants
const (
	wgs84A         = 6378137.0
	wgs84F         = 1 / 298.257223563
	utmScale       = 0.9996
	falseEasting   = 500000.0
	falseNorthingS = 10000000.0
)

// UTM is the WGS84 Universal Transverse Mercator projection for a single zone.
// Output is in meters.
type UTM struct {
	Zone  int
	South bool

	centralMeridian float64 // radians
}

// NewUTM returns the projection for zone 1..60.
func NewUTM(zone int, south bool) (*UTM, error) {
	if zone < 1 || zone > 60 {
		return nil, fmt.Errorf("UTM zone out of range [1,60]: %d", zone)
	}
	return &UTM{
		Zone:            zone,
		South:           south,
		centralMeridian: degreesToRadians(float64(zone-1)*6 - 180 + 3),
	}, nil
}

// ZoneFor returns the UTM zone containing lon.
func ZoneFor(lon float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	if zone < 1 {
		zone = 1
	}
	return zone
}

// Project implements Projector using the Snyder series expansion
// (USGS Professional Paper 1395, eqs. 8-9 to 8-15).
func (u *UTM) Project(lon, lat float64) (x, y float64) {
	e2 := wgs84F * (2 - wgs84F)
	ep2 := e2 / (1 - e2)
	e4 := e2 * e2
	e6 := e4 * e2

	phi := degreesToRadians(lat)
	lambda := degreesToRadians(lon)

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := wgs84A / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * (lambda - u.centralMeridian)

	m := wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x = utmScale*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*ep2)*a5/120) + falseEasting
	y = utmScale * (m + n*tanPhi*(a2/2+(5-t+9*c+4*c*c)*a4/24+(61-58*t+t*t+600*c-330*ep2)*a6/720))
	if u.South {
		y += falseNorthingS
	}
	return x, y
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
