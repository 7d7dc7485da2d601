package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/safewalk-backend/internal/analysis/zones"
	"github.com/jengzang/safewalk-backend/internal/apperrors"
	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/observability"
	"github.com/jengzang/safewalk-backend/internal/repository"
)

func TestSignalSubmitAndStats(t *testing.T) {
	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(start.Add(25 * time.Minute))
	metrics := observability.NewMetricsForTesting()
	svc := NewSignalService(db, 0.01, clock, metrics, nil)
	ctx := context.Background()

	rec, err := svc.Submit(ctx, "2503_12156", models.SignalUnsafe, nil)
	require.NoError(t, err)
	assert.True(t, start.Equal(rec.Timeslot))

	_, err = svc.Submit(ctx, "2503_12156", models.SignalOK, nil)
	require.NoError(t, err)

	explicit := start.Add(-3*time.Hour + 10*time.Minute)
	_, err = svc.Submit(ctx, "2503_12156", models.SignalUnsafe, &explicit)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "2503_12156", nil)
	require.NoError(t, err)
	assert.Equal(t, models.SignalStats{Unsafe: 1, OK: 1, Total: 2}, stats)

	earlier := start.Add(-3 * time.Hour)
	stats, err = svc.Stats(ctx, "2503_12156", &earlier)
	require.NoError(t, err)
	assert.Equal(t, models.SignalStats{Unsafe: 1, Total: 1}, stats)

	stats, err = svc.Stats(ctx, "-1_-1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.SignalStats{}, stats)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SignalsSubmitted.WithLabelValues("unsafe")))

	var lat, lng float64
	require.NoError(t, db.QueryRow(`SELECT center_lat, center_lng FROM grids WHERE grid_id = ?`, "2503_12156").Scan(&lat, &lng))
	assert.InDelta(t, 25.035, lat, 1e-9)
	assert.InDelta(t, 121.565, lng, 1e-9)
}

func TestSignalValidation(t *testing.T) {
	svc := NewSignalService(newTestDB(t), 0.01, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "not-a-grid", models.SignalOK, nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))

	_, err = svc.Submit(ctx, "1_1", models.SignalType(9), nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))

	_, err = svc.Stats(ctx, "1_x", nil)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))
}

func TestLocate(t *testing.T) {
	svc := NewSignalService(newTestDB(t), 0.01, nil, nil, nil)

	grid, err := svc.Locate(25.0330, 121.5654)
	require.NoError(t, err)
	assert.Equal(t, "2503_12156", grid.GridID)
	assert.InDelta(t, 25.035, grid.CenterLat, 1e-9)

	_, err = svc.Locate(-91, 0)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))
}

func TestDangerZoneServiceOverStore(t *testing.T) {
	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(start)
	metrics := observability.NewMetricsForTesting()
	points := NewDangerPointService(db, 10, clock, nil, nil)
	zonesSvc := NewDangerZoneService(repository.NewDangerPointRepository(db), clock, metrics, nil)
	ctx := context.Background()

	// Twelve owners with one report each, all within ~15 m of each other.
	for i := 0; i < 12; i++ {
		r := report(ownerName(i), i)
		r.Lat = 25.0330 + float64(i%4)*0.00005
		r.Lng = 121.5654 + float64(i/4)*0.00005
		_, err := points.Submit(ctx, r)
		require.NoError(t, err)
	}

	summary, err := zonesSvc.Query(ctx, zonesQuery(25.0330, 121.5654, 300))
	require.NoError(t, err)

	assert.Equal(t, 12, summary.Statistics.TotalPointsInRange)
	require.Len(t, summary.Clusters, 1)
	assert.Equal(t, 12, summary.Clusters[0].PointCount)
	assert.InDelta(t, 12.0, summary.Clusters[0].AlphaSum, 1e-9)
	assert.Equal(t, models.RiskCritical, summary.Clusters[0].RiskLevel)
	assert.Empty(t, summary.NoisePoints)
	assert.Len(t, summary.GeoJSON.Features, 1)
	assert.Equal(t, 60.0, summary.Query.Eps)
	assert.Equal(t, 3, summary.Query.MinPoints)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ZoneQueries))

	empty, err := zonesSvc.Query(ctx, zonesQuery(0, 0, 300))
	require.NoError(t, err)
	assert.Empty(t, empty.Clusters)
	assert.Empty(t, empty.GeoJSON.Features)
}

func ownerName(i int) string {
	return "owner-" + string(rune('a'+i))
}

func zonesQuery(lat, lng, radius float64) zones.Query {
	return zones.Query{Lat: lat, Lng: lng, Radius: radius}
}
