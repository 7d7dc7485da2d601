package zones

import (
	"math"

	"github.com/jengzang/safewalk-backend/internal/apperrors"
	"github.com/jengzang/safewalk-backend/internal/spatial"
)

// Defaults for parameters the caller leaves unset.
const (
	MinDefaultEps         = 50.0
	MaxDefaultEps         = 300.0
	DefaultMaxClusterSize = 20

	smallAreaMinPoints = 3
	largeAreaMinPoints = 5
	largeAreaRadius    = 1000.0
)

// Query is a danger-zone request. Nil tuning fields take radius-derived
// defaults.
type Query struct {
	Lat            float64
	Lng            float64
	Radius         float64
	Eps            *float64
	MinPoints      *int
	MaxClusterSize *int
}

// Params is a validated query with every default applied.
type Params struct {
	Center         spatial.Point
	Radius         float64
	Eps            float64
	MinPoints      int
	MaxClusterSize int
}

// DefaultEps is radius/5 clamped to [50, 300] meters.
func DefaultEps(radius float64) float64 {
	return math.Max(MinDefaultEps, math.Min(MaxDefaultEps, radius/5))
}

// DefaultMinPoints is 5 for areas wider than a kilometer, else 3.
func DefaultMinPoints(radius float64) int {
	if radius > largeAreaRadius {
		return largeAreaMinPoints
	}
	return smallAreaMinPoints
}

// Resolve validates q and fills in defaults.
func (q Query) Resolve() (Params, error) {
	center := spatial.Point{Lat: q.Lat, Lon: q.Lng}
	if !center.Valid() {
		return Params{}, apperrors.InvalidArgument("Invalid coordinate range")
	}
	if math.IsNaN(q.Radius) || q.Radius <= 0 {
		return Params{}, apperrors.InvalidArgument("radius must be positive")
	}

	p := Params{
		Center:         center,
		Radius:         q.Radius,
		Eps:            DefaultEps(q.Radius),
		MinPoints:      DefaultMinPoints(q.Radius),
		MaxClusterSize: DefaultMaxClusterSize,
	}

	if q.Eps != nil {
		if math.IsNaN(*q.Eps) || *q.Eps <= 0 {
			return Params{}, apperrors.InvalidArgument("eps must be positive")
		}
		p.Eps = *q.Eps
	}
	if q.MinPoints != nil {
		if *q.MinPoints < 1 {
			return Params{}, apperrors.InvalidArgument("minpoints must be at least 1")
		}
		p.MinPoints = *q.MinPoints
	}
	if q.MaxClusterSize != nil {
		if *q.MaxClusterSize < 1 {
			return Params{}, apperrors.InvalidArgument("maxPointsPerCluster must be at least 1")
		}
		p.MaxClusterSize = *q.MaxClusterSize
	}

	return p, nil
}
