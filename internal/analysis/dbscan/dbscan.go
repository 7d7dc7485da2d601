// Package dbscan implements deterministic density-based clustering over
// planar points.
package dbscan

import (
	"math"
	"sort"
)

// Noise is the label of a point that belongs to no cluster.
const Noise = -1

const unvisited = -2

// Point is a position in a planar frame, in meters.
type Point struct {
	X, Y float64
}

// Cluster labels every point with a cluster index (0, 1, ...) or Noise.
//
// A point is a core point when at least minPoints other points lie within eps
// of it. Clusters grow from core points in input order, so the same input
// slice always yields the same labels. A border point reachable from several
// clusters joins the first one that reaches it.
func Cluster(points []Point, eps float64, minPoints int) (labels []int, clusters int) {
	labels = make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}
	if len(points) == 0 {
		return labels, 0
	}

	idx := newGridIndex(points, eps)

	for i := range points {
		if labels[i] != unvisited {
			continue
		}

		neighbors := idx.neighbors(i)
		if len(neighbors) < minPoints {
			labels[i] = Noise
			continue
		}

		labels[i] = clusters
		queue := append([]int(nil), neighbors...)
		for k := 0; k < len(queue); k++ {
			j := queue[k]
			if labels[j] == Noise {
				labels[j] = clusters
				continue
			}
			if labels[j] != unvisited {
				continue
			}

			labels[j] = clusters
			if next := idx.neighbors(j); len(next) >= minPoints {
				queue = append(queue, next...)
			}
		}
		clusters++
	}

	return labels, clusters
}

type cellKey struct{ cx, cy int64 }

// gridIndex buckets points into eps-sized cells so a neighborhood lookup only
// visits the 3x3 block around a point.
type gridIndex struct {
	points []Point
	eps    float64
	eps2   float64
	cells  map[cellKey][]int
}

func newGridIndex(points []Point, eps float64) *gridIndex {
	g := &gridIndex{
		points: points,
		eps:    eps,
		eps2:   eps * eps,
		cells:  make(map[cellKey][]int),
	}
	for i, p := range points {
		k := g.cellOf(p)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *gridIndex) cellOf(p Point) cellKey {
	return cellKey{
		cx: int64(math.Floor(p.X / g.eps)),
		cy: int64(math.Floor(p.Y / g.eps)),
	}
}

// neighbors returns the indices of all other points within eps of point i,
// in ascending index order.
func (g *gridIndex) neighbors(i int) []int {
	p := g.points[i]
	home := g.cellOf(p)

	var out []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range g.cells[cellKey{home.cx + dx, home.cy + dy}] {
				if j == i {
					continue
				}
				q := g.points[j]
				ddx, ddy := p.X-q.X, p.Y-q.Y
				if ddx*ddx+ddy*ddy <= g.eps2 {
					out = append(out, j)
				}
			}
		}
	}
	sort.Ints(out)
	return out
}
