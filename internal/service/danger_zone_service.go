package service

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/jengzang/safewalk-backend/internal/analysis/zones"
	"github.com/jengzang/safewalk-backend/internal/observability"
)

// DangerZoneService answers danger-zone queries
type DangerZoneService struct {
	engine  *zones.Engine
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewDangerZoneService creates a new danger zone service over source.
func NewDangerZoneService(source zones.PointSource, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *DangerZoneService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DangerZoneService{
		engine:  zones.NewEngine(source, logger),
		clock:   clock,
		metrics: metrics,
	}
}

// Query clusters the points around q's center and assembles the response.
func (s *DangerZoneService) Query(ctx context.Context, q zones.Query) (*zones.Summary, error) {
	start := s.clock.Now()

	result, err := s.engine.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ZoneQueries.Inc()
		s.metrics.ZoneCandidates.Observe(float64(result.Statistics.TotalPointsInRange))
		s.metrics.ZoneClusters.Observe(float64(result.Statistics.ClustersFound))
		s.metrics.ZoneQueryDuration.Observe(s.clock.Since(start).Seconds())
	}

	return zones.Assemble(result), nil
}
