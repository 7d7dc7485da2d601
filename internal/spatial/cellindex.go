package spatial

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// maxCoveringCells bounds the number of key ranges a radius query expands to.
const maxCoveringCells = 16

// KeyRange is an inclusive range of cell keys.
type KeyRange struct {
	Min string
	Max string
}

// CellKey returns the S2 leaf cell of a coordinate as a fixed-width hex key.
// Keys sort lexicographically in the same order as the underlying cell ids,
// so a cell's descendants occupy one contiguous key range.
func CellKey(lat, lon float64) string {
	return formatCellID(s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)))
}

// CoveringRanges returns the key ranges whose union covers the spherical cap
// of radiusMeters around (lat, lon). Points inside the cap always fall in one
// of the ranges; the converse does not hold, so callers still filter by exact
// distance.
func CoveringRanges(lat, lon, radiusMeters float64) []KeyRange {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	region := s2.CapFromCenterAngle(center, metersToAngle(radiusMeters))

	coverer := &s2.RegionCoverer{
		MinLevel: 0,
		MaxLevel: 30,
		LevelMod: 1,
		MaxCells: maxCoveringCells,
	}
	covering := coverer.Covering(region)

	ranges := make([]KeyRange, 0, len(covering))
	for _, cell := range covering {
		ranges = append(ranges, KeyRange{
			Min: formatCellID(cell.RangeMin()),
			Max: formatCellID(cell.RangeMax()),
		})
	}
	return ranges
}

func formatCellID(id s2.CellID) string {
	return fmt.Sprintf("%016x", uint64(id))
}
