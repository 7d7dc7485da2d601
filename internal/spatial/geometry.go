package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// ValidCoordinate reports whether lat/lon lie within [-90,90]x[-180,180].
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Valid reports whether p is a valid WGS84 coordinate.
func (p Point) Valid() bool {
	return ValidCoordinate(p.Lat, p.Lon)
}

// Projection maps geographic coordinates onto a local planar frame in meters.
// The frame is the tangent plane at Origin with x east and y north; each point
// keeps its true bearing and great-circle distance from Origin (azimuthal
// equidistant). The east/north basis is built from Origin's longitude, so the
// frame stays well defined at the poles and across the antimeridian.
type Projection struct {
	Origin Point
	up     r3.Vector
	east   r3.Vector
	north  r3.Vector
}

// NewProjection creates a local planar frame centered on origin.
func NewProjection(origin Point) Projection {
	phi := origin.Lat * math.Pi / 180
	lambda := origin.Lon * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)
	sinLambda, cosLambda := math.Sincos(lambda)

	return Projection{
		Origin: origin,
		up:     s2.PointFromLatLng(s2.LatLngFromDegrees(origin.Lat, origin.Lon)).Vector,
		east:   r3.Vector{X: -sinLambda, Y: cosLambda, Z: 0},
		north:  r3.Vector{X: -sinPhi * cosLambda, Y: -sinPhi * sinLambda, Z: cosPhi},
	}
}

// Forward projects p into (x, y) meters east/north of the origin.
func (pr Projection) Forward(p Point) (x, y float64) {
	v := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)).Vector
	e, n := v.Dot(pr.east), v.Dot(pr.north)
	h := math.Hypot(e, n)
	if h == 0 {
		// origin itself, or its antipode
		return 0, 0
	}
	dist := pr.up.Angle(v).Radians() * EarthRadiusMeters
	return dist * e / h, dist * n / h
}

// Inverse converts planar (x, y) meters back to geographic coordinates.
func (pr Projection) Inverse(x, y float64) Point {
	dist := math.Hypot(x, y)
	if dist == 0 {
		return pr.Origin
	}

	theta := dist / EarthRadiusMeters
	dir := pr.east.Mul(x / dist).Add(pr.north.Mul(y / dist))
	v := pr.up.Mul(math.Cos(theta)).Add(dir.Mul(math.Sin(theta)))

	ll := s2.LatLngFromPoint(s2.Point{Vector: v.Normalize()})
	return Point{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}

// PlanarCentroid computes the mean position of points in the projection's
// planar frame and converts it back to geographic coordinates.
func (pr Projection) PlanarCentroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumX, sumY float64
	for _, p := range points {
		x, y := pr.Forward(p)
		sumX += x
		sumY += y
	}

	n := float64(len(points))
	return pr.Inverse(sumX/n, sumY/n)
}
