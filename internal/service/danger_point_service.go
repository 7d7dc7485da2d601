package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jengzang/safewalk-backend/internal/apperrors"
	"github.com/jengzang/safewalk-backend/internal/database"
	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/observability"
	"github.com/jengzang/safewalk-backend/internal/repository"
	"github.com/jengzang/safewalk-backend/internal/spatial"
)

// DefaultMaxPointsPerUser caps how many active reports one identity holds.
const DefaultMaxPointsPerUser = 10

// DangerPointService owns the lifecycle of danger reports and keeps every
// owner's alpha equal to 1/count across all of their points.
type DangerPointService struct {
	db         *database.DB
	identities *repository.IdentityRepository
	points     *repository.DangerPointRepository
	locks      *KeyedMutex
	maxPoints  int
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewDangerPointService creates a new danger point service
func NewDangerPointService(db *database.DB, maxPoints int, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *DangerPointService {
	if maxPoints < 1 {
		maxPoints = DefaultMaxPointsPerUser
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DangerPointService{
		db:         db,
		identities: repository.NewIdentityRepository(db),
		points:     repository.NewDangerPointRepository(db),
		locks:      NewKeyedMutex(),
		maxPoints:  maxPoints,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Submit stores a new report. When the owner is at the cap, their oldest
// reports are evicted first. The owner's count and the alpha of all their
// points are rewritten in the same transaction.
func (s *DangerPointService) Submit(ctx context.Context, req models.SubmitReport) (*models.DangerPoint, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, apperrors.InvalidArgument("uuid is required")
	}
	if !spatial.ValidCoordinate(req.Lat, req.Lng) {
		return nil, apperrors.InvalidArgument("Invalid coordinate range")
	}
	if !req.Category.Valid() {
		return nil, apperrors.InvalidArgument("type must be one of: light, few, monitor, dangerous")
	}

	unlock := s.locks.Lock(req.OwnerID)
	defer unlock()

	var (
		point   *models.DangerPoint
		evicted int
	)
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		identities := s.identities.WithTx(tx)
		points := s.points.WithTx(tx)
		now := s.clock.Now()
		evicted = 0

		if err := ensureIdentity(ctx, identities, req.OwnerID, now); err != nil {
			return err
		}

		count, err := points.CountByOwner(ctx, req.OwnerID)
		if err != nil {
			return err
		}

		for count >= s.maxPoints {
			oldest, err := points.OldestByOwner(ctx, req.OwnerID)
			if err != nil {
				return err
			}
			if err := points.Delete(ctx, oldest.ID); err != nil {
				return err
			}
			count--
			evicted++
		}

		point = &models.DangerPoint{
			PublicID:   uuid.NewString(),
			OwnerID:    req.OwnerID,
			Lat:        req.Lat,
			Lng:        req.Lng,
			Category:   req.Category,
			ObservedAt: req.ObservedAt.UTC(),
			CreatedAt:  now.UTC(),
		}
		if err := points.Insert(ctx, point); err != nil {
			return err
		}
		count++

		point.Alpha = models.Alpha(count)
		if _, err := points.UpdateAlphaByOwner(ctx, req.OwnerID, point.Alpha); err != nil {
			return err
		}
		return identities.SetCount(ctx, req.OwnerID, count, now)
	})
	if err != nil {
		return nil, s.storageError("submit danger point", req.OwnerID, err)
	}

	if s.metrics != nil {
		s.metrics.ReportsSubmitted.Inc()
		s.metrics.ReportsEvicted.Add(float64(evicted))
	}
	if evicted > 0 {
		s.logger.Info("evicted oldest danger points", "owner", req.OwnerID, "evicted", evicted)
	}
	s.logger.Debug("danger point submitted",
		"owner", req.OwnerID, "id", point.ID, "alpha", point.Alpha, "type", point.Category.String())

	return point, nil
}

// List returns the owner's reports, most recent first, with their alpha sum.
func (s *DangerPointService) List(ctx context.Context, ownerID string) (*models.DangerPointList, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperrors.InvalidArgument("uuid is required")
	}

	points, err := s.points.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.storageError("list danger points", ownerID, err)
	}

	total := 0.0
	for _, p := range points {
		total += p.Alpha
	}

	return &models.DangerPointList{
		Count:      len(points),
		TotalAlpha: total,
		Data:       points,
	}, nil
}

// Remove deletes one of the owner's reports and reweights the rest.
func (s *DangerPointService) Remove(ctx context.Context, ownerID, publicID string) (*models.RemoveResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperrors.InvalidArgument("uuid is required")
	}
	if strings.TrimSpace(publicID) == "" {
		return nil, apperrors.InvalidArgument("uuuid is required")
	}

	unlock := s.locks.Lock(ownerID)
	defer unlock()

	var result models.RemoveResult
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		identities := s.identities.WithTx(tx)
		points := s.points.WithTx(tx)

		point, err := points.GetByPublicID(ctx, publicID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Danger point not found")
		}
		if err != nil {
			return err
		}
		if point.OwnerID != ownerID {
			return apperrors.PermissionDenied("You can only delete your own danger points")
		}

		if err := points.Delete(ctx, point.ID); err != nil {
			return err
		}

		// 以实际剩余点数为准, 不会低于 0
		count, err := points.CountByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if count > 0 {
			if _, err := points.UpdateAlphaByOwner(ctx, ownerID, models.Alpha(count)); err != nil {
				return err
			}
		}
		if err := identities.SetCount(ctx, ownerID, count, s.clock.Now()); err != nil {
			return err
		}

		result = models.RemoveResult{RemainingPoints: count, NewAlpha: models.Alpha(count)}
		return nil
	})
	if err != nil {
		return nil, s.storageError("remove danger point", ownerID, err)
	}

	if s.metrics != nil {
		s.metrics.ReportsRemoved.Inc()
	}
	s.logger.Debug("danger point removed", "owner", ownerID, "remaining", result.RemainingPoints)

	return &result, nil
}

// storageError passes taxonomy errors through and hides everything else
// behind StorageFailure.
func (s *DangerPointService) storageError(op, ownerID string, err error) error {
	if apperrors.KindOf(err) != apperrors.KindUnknown {
		return err
	}
	s.logger.Error("failed to "+op, "owner", ownerID, "error", err)
	return apperrors.Storage(err)
}

// ensureIdentity creates the implicit identity of a first-time reporter.
func ensureIdentity(ctx context.Context, identities *repository.IdentityRepository, ownerID string, now time.Time) error {
	_, err := identities.GetByUUID(ctx, ownerID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	identity := &models.Identity{
		UUID:      ownerID,
		Account:   implicitAccount(ownerID),
		Name:      implicitName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = identities.Create(ctx, identity)
	if errors.Is(err, repository.ErrDuplicate) {
		// account prefix taken; fall back to the full owner id
		identity.Account = "user_" + ownerID
		err = identities.Create(ctx, identity)
	}
	return err
}
