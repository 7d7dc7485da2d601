package dbscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func line(n int, x0, spacing float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: x0 + float64(i)*spacing}
	}
	return pts
}

func TestClusterEmpty(t *testing.T) {
	labels, n := Cluster(nil, 10, 3)
	assert.Empty(t, labels)
	assert.Zero(t, n)
}

func TestClusterTwoGroupsAndNoise(t *testing.T) {
	pts := append(line(5, 0, 5), line(4, 1000, 5)...)
	pts = append(pts, Point{X: 500, Y: 500})

	labels, n := Cluster(pts, 10, 2)

	assert.Equal(t, 2, n)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, labels[i])
	}
	for i := 5; i < 9; i++ {
		assert.Equal(t, 1, labels[i])
	}
	assert.Equal(t, Noise, labels[9])
}

func TestCorePointCountsOtherPointsOnly(t *testing.T) {
	// Three points, each with exactly two others in range.
	pts := []Point{{0, 0}, {1, 0}, {2, 0}}

	_, n := Cluster(pts, 5, 2)
	assert.Equal(t, 1, n)

	labels, n := Cluster(pts, 5, 3)
	assert.Zero(t, n)
	assert.Equal(t, []int{Noise, Noise, Noise}, labels)
}

func TestBorderPointJoinsCluster(t *testing.T) {
	// Point 0 is not core on its own but is within eps of core point 1.
	pts := []Point{{0, 0}, {8, 0}, {12, 0}, {14, 0}, {16, 0}}

	labels, n := Cluster(pts, 9, 3)

	assert.Equal(t, 1, n)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, labels)
}

func TestClusterIsDeterministic(t *testing.T) {
	pts := make([]Point, 0, 60)
	for i := 0; i < 60; i++ {
		pts = append(pts, Point{X: float64(i%10) * 7, Y: float64(i/10) * 7})
	}

	first, n1 := Cluster(pts, 10, 3)
	for run := 0; run < 5; run++ {
		again, n2 := Cluster(pts, 10, 3)
		assert.Equal(t, n1, n2)
		assert.Equal(t, first, again)
	}
}

func TestNeighborsAcrossCellBoundary(t *testing.T) {
	pts := []Point{{-0.5, -0.5}, {0.5, 0.5}}
	idx := newGridIndex(pts, 2)
	assert.Equal(t, []int{1}, idx.neighbors(0))
	assert.Equal(t, []int{0}, idx.neighbors(1))
}
