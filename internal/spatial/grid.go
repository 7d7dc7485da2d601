package spatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidGridID is returned when a grid id is not "<latIndex>_<lngIndex>".
var ErrInvalidGridID = errors.New("invalid grid id")

// GridID maps a coordinate onto a fixed-size grid cell id.
// size is the cell edge in degrees.
func GridID(lat, lon, size float64) string {
	latIdx := int64(math.Floor(lat / size))
	lonIdx := int64(math.Floor(lon / size))
	return fmt.Sprintf("%d_%d", latIdx, lonIdx)
}

// ParseGridID splits a grid id into its integer row/column indices.
func ParseGridID(gridID string) (latIdx, lonIdx int64, err error) {
	parts := strings.Split(gridID, "_")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidGridID, gridID)
	}

	latIdx, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidGridID, gridID)
	}
	lonIdx, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidGridID, gridID)
	}

	return latIdx, lonIdx, nil
}

// GridCenter returns the center coordinate of a grid cell.
func GridCenter(gridID string, size float64) (Point, error) {
	latIdx, lonIdx, err := ParseGridID(gridID)
	if err != nil {
		return Point{}, err
	}

	return Point{
		Lat: float64(latIdx)*size + size/2,
		Lon: float64(lonIdx)*size + size/2,
	}, nil
}
