package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		delta                  float64
	}{
		{"same point", 25.033, 121.565, 25.033, 121.565, 0, 1e-9},
		{"one degree of latitude", 0, 0, 1, 0, 111195, 5},
		{"taipei to kaohsiung", 25.0330, 121.5654, 22.6273, 120.3014, 297000, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(90, 180))
	assert.True(t, ValidCoordinate(-90, -180))
	assert.False(t, ValidCoordinate(90.0001, 0))
	assert.False(t, ValidCoordinate(0, -180.5))
}

func TestProjectionRoundTrip(t *testing.T) {
	pr := NewProjection(Point{Lat: 25.04, Lon: 121.56})

	p := Point{Lat: 25.045, Lon: 121.552}
	x, y := pr.Forward(p)
	back := pr.Inverse(x, y)

	assert.InDelta(t, p.Lat, back.Lat, 1e-9)
	assert.InDelta(t, p.Lon, back.Lon, 1e-9)

	// Planar distance agrees with great-circle distance at short range.
	planar := x*x + y*y
	gc := HaversineDistance(pr.Origin.Lat, pr.Origin.Lon, p.Lat, p.Lon)
	assert.InDelta(t, gc*gc, planar, gc*gc*0.01)
}

func TestPlanarCentroid(t *testing.T) {
	pr := NewProjection(Point{Lat: 10, Lon: 10})
	c := pr.PlanarCentroid([]Point{{Lat: 10, Lon: 10}, {Lat: 10.002, Lon: 10.002}})
	assert.InDelta(t, 10.001, c.Lat, 1e-6)
	assert.InDelta(t, 10.001, c.Lon, 1e-6)

	assert.Equal(t, Point{}, pr.PlanarCentroid(nil))
}

func TestProjectionAtThePole(t *testing.T) {
	tests := []struct {
		name   string
		origin Point
	}{
		{"north pole", Point{Lat: 90, Lon: 0}},
		{"south pole", Point{Lat: -90, Lon: 45}},
		{"near pole", Point{Lat: 89.9999, Lon: -120}},
		{"antimeridian", Point{Lat: 60, Lon: 180}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := NewProjection(tt.origin)
			lat := 89.9985
			if tt.origin.Lat < 0 {
				lat = -lat
			}
			if tt.origin.Lat == 60 {
				lat = 60.001
			}
			a := Point{Lat: lat, Lon: 179.99}
			b := Point{Lat: lat, Lon: -179.99}
			c := Point{Lat: lat, Lon: 0}

			for _, p := range []Point{a, b, c} {
				x, y := pr.Forward(p)
				back := pr.Inverse(x, y)
				assert.InDelta(t, 0, HaversineDistance(p.Lat, p.Lon, back.Lat, back.Lon), 1e-3)
			}

			// Planar separation tracks great-circle separation at short range.
			for _, pair := range [][2]Point{{a, b}, {a, c}, {b, c}} {
				x1, y1 := pr.Forward(pair[0])
				x2, y2 := pr.Forward(pair[1])
				planar := math.Hypot(x1-x2, y1-y2)
				gc := HaversineDistance(pair[0].Lat, pair[0].Lon, pair[1].Lat, pair[1].Lon)
				if gc > 1000 {
					continue
				}
				assert.InDelta(t, gc, planar, gc*0.01+0.01)
			}
		})
	}
}

func TestProjectionSeparatesPointsAcrossThePole(t *testing.T) {
	pr := NewProjection(Point{Lat: 90, Lon: 0})

	x1, y1 := pr.Forward(Point{Lat: 89.99865, Lon: 0})
	x2, y2 := pr.Forward(Point{Lat: 89.99865, Lon: 180})
	assert.InDelta(t, 300.2, math.Hypot(x1-x2, y1-y2), 0.5)

	origin := pr.Inverse(0, 0)
	assert.Equal(t, 90.0, origin.Lat)
}

func TestGridIDAndCenter(t *testing.T) {
	id := GridID(25.0331, 121.5654, 0.01)
	assert.Equal(t, "2503_12156", id)

	center, err := GridCenter(id, 0.01)
	require.NoError(t, err)
	assert.InDelta(t, 25.035, center.Lat, 1e-9)
	assert.InDelta(t, 121.565, center.Lon, 1e-9)

	assert.Equal(t, "-1_-1", GridID(-0.5, -0.5, 1))
	center, err = GridCenter("-1_-1", 1)
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: -0.5, Lon: -0.5}, center)
}

func TestParseGridIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "12", "a_b", "1_2_3", "1_"} {
		_, _, err := ParseGridID(id)
		assert.ErrorIs(t, err, ErrInvalidGridID, id)
	}
}

func TestCellKeyFallsInCovering(t *testing.T) {
	centerLat, centerLon := 25.0330, 121.5654
	ranges := CoveringRanges(centerLat, centerLon, 500)
	require.NotEmpty(t, ranges)
	assert.LessOrEqual(t, len(ranges), maxCoveringCells)

	inside := []Point{
		{Lat: centerLat, Lon: centerLon},
		{Lat: centerLat + 0.003, Lon: centerLon},
		{Lat: centerLat, Lon: centerLon - 0.004},
	}
	for _, p := range inside {
		require.LessOrEqual(t, HaversineDistance(centerLat, centerLon, p.Lat, p.Lon), 500.0)
		key := CellKey(p.Lat, p.Lon)
		assert.True(t, inAnyRange(key, ranges), "point %+v not covered", p)
	}

	far := CellKey(centerLat+1, centerLon+1)
	assert.False(t, inAnyRange(far, ranges))
}

func TestCellKeyOrderingIsFixedWidth(t *testing.T) {
	keys := []string{
		CellKey(-45, -170),
		CellKey(0, 0),
		CellKey(60, 100),
		CellKey(-80, 30),
	}
	for _, k := range keys {
		assert.Len(t, k, 16)
	}
}

func inAnyRange(key string, ranges []KeyRange) bool {
	for _, r := range ranges {
		if key >= r.Min && key <= r.Max {
			return true
		}
	}
	return false
}
