// Package zones turns the danger points around a location into weighted risk
// clusters and renders them for map clients.
package zones

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/jengzang/safewalk-backend/internal/analysis/dbscan"
	"github.com/jengzang/safewalk-backend/internal/apperrors"
	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/spatial"
)

// Risk thresholds on a cluster's summed alpha.
const (
	criticalAlpha = 5.0
	highAlpha     = 2.0
	mediumAlpha   = 1.0
)

// PointSource returns every stored point within radiusMeters of a center.
type PointSource interface {
	WithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]models.DangerPoint, error)
}

// ClusterID identifies a cluster. Clusters that were split carry the index of
// their group within the parent; unsplit clusters have Split == false.
type ClusterID struct {
	Parent int
	Group  int
	Split  bool
}

// String renders "<parent>" or "<parent>-<group>".
func (id ClusterID) String() string {
	if !id.Split {
		return strconv.Itoa(id.Parent)
	}
	return strconv.Itoa(id.Parent) + "-" + strconv.Itoa(id.Group)
}

// MarshalText encodes the id as its String form, so JSON carries "0" or "0-1".
func (id ClusterID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id ClusterID) less(o ClusterID) bool {
	if id.Parent != o.Parent {
		return id.Parent < o.Parent
	}
	return id.Group < o.Group
}

// Cluster is one final (post-split) group of danger points.
type Cluster struct {
	ID         ClusterID             `json:"cluster_id"`
	PointCount int                   `json:"point_count"`
	AlphaSum   float64               `json:"alpha"`
	Lat        float64               `json:"lat"`
	Lng        float64               `json:"lng"`
	RiskLevel  models.RiskLevel      `json:"risk_level"`
	TypeCounts models.CategoryCounts `json:"type_counts"`
	MemberIDs  []int64               `json:"-"`
}

// NoisePoint is a danger point that belongs to no cluster.
type NoisePoint struct {
	ID       int64           `json:"id"`
	Lat      float64         `json:"lat"`
	Lng      float64         `json:"lng"`
	Alpha    float64         `json:"alpha"`
	Category models.Category `json:"type"`
}

// Statistics are the totals of one query.
type Statistics struct {
	TotalPointsInRange int     `json:"total_points_in_range"`
	ClustersFound      int     `json:"clusters_found"`
	NoisePoints        int     `json:"noise_points"`
	TotalAlphaSum      float64 `json:"total_alpha_sum"`
	ClustersAlphaSum   float64 `json:"clusters_alpha_sum"`
	NoiseAlphaSum      float64 `json:"noise_alpha_sum"`
}

// Result is the clustering outcome. Clusters are ordered by alpha sum
// descending, then by id; noise points by alpha descending, then by id.
type Result struct {
	Params     Params
	Clusters   []Cluster
	Noise      []NoisePoint
	Statistics Statistics
}

// ClassifyRisk maps a cluster's summed alpha onto a risk level.
func ClassifyRisk(alphaSum float64) models.RiskLevel {
	switch {
	case alphaSum > criticalAlpha:
		return models.RiskCritical
	case alphaSum > highAlpha:
		return models.RiskHigh
	case alphaSum > mediumAlpha:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Engine answers danger-zone queries against a PointSource.
type Engine struct {
	source PointSource
	logger *slog.Logger
}

// NewEngine creates an engine reading candidates from source.
func NewEngine(source PointSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{source: source, logger: logger}
}

// Query validates q, loads the candidate set, and clusters it.
func (e *Engine) Query(ctx context.Context, q Query) (*Result, error) {
	params, err := q.Resolve()
	if err != nil {
		return nil, err
	}

	candidates, err := e.source.WithinRadius(ctx, params.Center.Lat, params.Center.Lon, params.Radius)
	if err != nil {
		e.logger.Error("danger zone candidate lookup failed",
			"lat", params.Center.Lat, "lng", params.Center.Lon, "radius", params.Radius, "error", err)
		return nil, apperrors.Storage(err)
	}

	result := ClusterPoints(candidates, params)
	e.logger.Debug("danger zones computed",
		"candidates", result.Statistics.TotalPointsInRange,
		"clusters", result.Statistics.ClustersFound,
		"noise", result.Statistics.NoisePoints,
		"eps", params.Eps,
		"min_points", params.MinPoints,
	)
	return result, nil
}

// ClusterPoints runs density clustering over the candidate set and
// aggregates the outcome. It is a pure function of its inputs.
func ClusterPoints(candidates []models.DangerPoint, params Params) *Result {
	points := make([]models.DangerPoint, len(candidates))
	copy(points, candidates)
	sort.SliceStable(points, func(i, j int) bool { return points[i].ID < points[j].ID })

	proj := spatial.NewProjection(params.Center)
	planar := make([]dbscan.Point, len(points))
	for i, p := range points {
		x, y := proj.Forward(spatial.Point{Lat: p.Lat, Lon: p.Lng})
		planar[i] = dbscan.Point{X: x, Y: y}
	}

	labels, n := dbscan.Cluster(planar, params.Eps, params.MinPoints)

	members := make([][]int, n)
	var noise []NoisePoint
	for i, label := range labels {
		if label == dbscan.Noise {
			p := points[i]
			noise = append(noise, NoisePoint{ID: p.ID, Lat: p.Lat, Lng: p.Lng, Alpha: p.Alpha, Category: p.Category})
			continue
		}
		members[label] = append(members[label], i)
	}

	var clusters []Cluster
	for parent, group := range members {
		for _, part := range splitGroup(parent, group, params.MaxClusterSize) {
			clusters = append(clusters, aggregate(part.id, part.members, points, proj))
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].AlphaSum != clusters[j].AlphaSum {
			return clusters[i].AlphaSum > clusters[j].AlphaSum
		}
		return clusters[i].ID.less(clusters[j].ID)
	})
	sort.SliceStable(noise, func(i, j int) bool {
		if noise[i].Alpha != noise[j].Alpha {
			return noise[i].Alpha > noise[j].Alpha
		}
		return noise[i].ID < noise[j].ID
	})

	stats := Statistics{
		TotalPointsInRange: len(points),
		ClustersFound:      len(clusters),
		NoisePoints:        len(noise),
	}
	for _, c := range clusters {
		stats.ClustersAlphaSum += c.AlphaSum
	}
	for _, p := range noise {
		stats.NoiseAlphaSum += p.Alpha
	}
	stats.TotalAlphaSum = stats.ClustersAlphaSum + stats.NoiseAlphaSum

	if clusters == nil {
		clusters = []Cluster{}
	}
	if noise == nil {
		noise = []NoisePoint{}
	}

	return &Result{
		Params:     params,
		Clusters:   clusters,
		Noise:      noise,
		Statistics: stats,
	}
}

type subCluster struct {
	id      ClusterID
	members []int
}

// splitGroup cuts a cluster's members (already in candidate order) into
// consecutive groups of at most maxSize.
func splitGroup(parent int, members []int, maxSize int) []subCluster {
	if len(members) <= maxSize {
		return []subCluster{{id: ClusterID{Parent: parent}, members: members}}
	}

	parts := make([]subCluster, 0, (len(members)+maxSize-1)/maxSize)
	for start, group := 0, 0; start < len(members); start, group = start+maxSize, group+1 {
		end := start + maxSize
		if end > len(members) {
			end = len(members)
		}
		parts = append(parts, subCluster{
			id:      ClusterID{Parent: parent, Group: group, Split: true},
			members: members[start:end],
		})
	}
	return parts
}

func aggregate(id ClusterID, members []int, points []models.DangerPoint, proj spatial.Projection) Cluster {
	c := Cluster{
		ID:         id,
		PointCount: len(members),
		MemberIDs:  make([]int64, 0, len(members)),
	}

	geo := make([]spatial.Point, 0, len(members))
	for _, i := range members {
		p := points[i]
		c.AlphaSum += p.Alpha
		c.TypeCounts.Add(p.Category)
		c.MemberIDs = append(c.MemberIDs, p.ID)
		geo = append(geo, spatial.Point{Lat: p.Lat, Lon: p.Lng})
	}

	centroid := proj.PlanarCentroid(geo)
	c.Lat = centroid.Lat
	c.Lng = centroid.Lon
	c.RiskLevel = ClassifyRisk(c.AlphaSum)
	return c
}
