package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jengzang/safewalk-backend/internal/apperrors"
	"github.com/jengzang/safewalk-backend/internal/database"
	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/observability"
	"github.com/jengzang/safewalk-backend/internal/repository"
	"github.com/jengzang/safewalk-backend/internal/spatial"
)

// SignalService records crowd safety votes on grid cells
type SignalService struct {
	db       *database.DB
	signals  *repository.SignalRepository
	gridSize float64
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewSignalService creates a new signal service. gridSize is the cell edge
// in degrees.
func NewSignalService(db *database.DB, gridSize float64, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *SignalService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SignalService{
		db:       db,
		signals:  repository.NewSignalRepository(db),
		gridSize: gridSize,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Locate returns the grid cell containing a coordinate.
func (s *SignalService) Locate(lat, lng float64) (*models.Grid, error) {
	if !spatial.ValidCoordinate(lat, lng) {
		return nil, apperrors.InvalidArgument("Invalid coordinate range")
	}
	gridID := spatial.GridID(lat, lng, s.gridSize)
	center, err := spatial.GridCenter(gridID, s.gridSize)
	if err != nil {
		return nil, apperrors.InvalidArgument("%v", err)
	}
	return &models.Grid{GridID: gridID, CenterLat: center.Lat, CenterLng: center.Lon}, nil
}

// Submit records one vote. A nil timeslot means the current hour.
func (s *SignalService) Submit(ctx context.Context, gridID string, signal models.SignalType, timeslot *time.Time) (*models.SafetySignal, error) {
	center, err := spatial.GridCenter(gridID, s.gridSize)
	if err != nil {
		return nil, apperrors.InvalidArgument("gridId must look like <latIndex>_<lngIndex>")
	}
	if signal != models.SignalUnsafe && signal != models.SignalOK {
		return nil, apperrors.InvalidArgument("signal must be one of: unsafe, ok")
	}

	now := s.clock.Now().UTC()
	record := &models.SafetySignal{
		GridID:    gridID,
		Signal:    signal,
		Timeslot:  s.slot(timeslot),
		CreatedAt: now,
	}

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		signals := s.signals.WithTx(tx)
		grid := &models.Grid{GridID: gridID, CenterLat: center.Lat, CenterLng: center.Lon, CreatedAt: now}
		if err := signals.EnsureGrid(ctx, grid); err != nil {
			return err
		}
		return signals.InsertSignal(ctx, record)
	})
	if err != nil {
		s.logger.Error("failed to record safety signal", "grid", gridID, "error", err)
		return nil, apperrors.Storage(err)
	}

	if s.metrics != nil {
		s.metrics.SignalsSubmitted.WithLabelValues(signal.String()).Inc()
	}
	return record, nil
}

// Stats tallies the votes of a grid cell in one timeslot. Unknown grids
// report zeros.
func (s *SignalService) Stats(ctx context.Context, gridID string, timeslot *time.Time) (models.SignalStats, error) {
	if _, _, err := spatial.ParseGridID(gridID); err != nil {
		if errors.Is(err, spatial.ErrInvalidGridID) {
			return models.SignalStats{}, apperrors.InvalidArgument("gridId must look like <latIndex>_<lngIndex>")
		}
		return models.SignalStats{}, err
	}

	stats, err := s.signals.Stats(ctx, gridID, s.slot(timeslot))
	if err != nil {
		s.logger.Error("failed to load signal stats", "grid", gridID, "error", err)
		return models.SignalStats{}, apperrors.Storage(err)
	}
	return stats, nil
}

// slot truncates a timeslot to the hour, defaulting to now.
func (s *SignalService) slot(t *time.Time) time.Time {
	if t == nil {
		return s.clock.Now().UTC().Truncate(time.Hour)
	}
	return t.UTC().Truncate(time.Hour)
}
