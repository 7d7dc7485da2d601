package zones

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature kinds tagged on the "type" property.
const (
	FeatureCluster = "cluster"
	FeatureNoise   = "noise"
)

// Center is a geographic position on the wire.
type Center struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// QueryEcho repeats the effective parameters back to the caller.
type QueryEcho struct {
	Center              Center  `json:"center"`
	Radius              float64 `json:"radius"`
	Eps                 float64 `json:"eps"`
	MinPoints           int     `json:"minpoints"`
	MaxPointsPerCluster int     `json:"maxPointsPerCluster"`
}

// Summary is the danger-zone response payload.
type Summary struct {
	Query       QueryEcho                  `json:"query"`
	Statistics  Statistics                 `json:"statistics"`
	Clusters    []Cluster                  `json:"clusters"`
	NoisePoints []NoisePoint               `json:"noise_points"`
	GeoJSON     *geojson.FeatureCollection `json:"geojson"`
}

// Assemble restructures a Result into the response payload. Values are copied
// as-is.
func Assemble(r *Result) *Summary {
	return &Summary{
		Query: QueryEcho{
			Center:              Center{Lat: r.Params.Center.Lat, Lng: r.Params.Center.Lon},
			Radius:              r.Params.Radius,
			Eps:                 r.Params.Eps,
			MinPoints:           r.Params.MinPoints,
			MaxPointsPerCluster: r.Params.MaxClusterSize,
		},
		Statistics:  r.Statistics,
		Clusters:    r.Clusters,
		NoisePoints: r.Noise,
		GeoJSON:     FeatureCollection(r),
	}
}

// FeatureCollection renders clusters (at their centroids) followed by noise
// points as GeoJSON point features.
func FeatureCollection(r *Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, c := range r.Clusters {
		f := geojson.NewFeature(orb.Point{c.Lng, c.Lat})
		f.Properties["type"] = FeatureCluster
		f.Properties["cluster_id"] = c.ID.String()
		f.Properties["alpha"] = c.AlphaSum
		f.Properties["risk_level"] = c.RiskLevel.String()
		f.Properties["point_count"] = c.PointCount
		f.Properties["type_counts"] = c.TypeCounts
		fc.Append(f)
	}

	for _, p := range r.Noise {
		f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
		f.Properties["type"] = FeatureNoise
		f.Properties["id"] = p.ID
		f.Properties["alpha"] = p.Alpha
		f.Properties["point_type"] = p.Category.String()
		fc.Append(f)
	}

	return fc
}
