package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/safewalk-backend/internal/models"
)

// SignalRepository handles database operations for grids and safety signals
type SignalRepository struct {
	db DBTX
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db DBTX) *SignalRepository {
	return &SignalRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *SignalRepository) WithTx(tx *sql.Tx) *SignalRepository {
	return &SignalRepository{db: tx}
}

// EnsureGrid creates the grid row if it does not exist yet.
func (r *SignalRepository) EnsureGrid(ctx context.Context, grid *models.Grid) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO grids (grid_id, center_lat, center_lng, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(grid_id) DO NOTHING`,
		grid.GridID, grid.CenterLat, grid.CenterLng, toUnixNano(grid.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert grid: %w", err)
	}
	return nil
}

// InsertSignal stores one vote and sets its ID.
func (r *SignalRepository) InsertSignal(ctx context.Context, s *models.SafetySignal) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO safety_signals (grid_id, signal, timeslot, created_at) VALUES (?, ?, ?, ?)`,
		s.GridID, int(s.Signal), toUnixNano(s.Timeslot), toUnixNano(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert safety signal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get safety signal id: %w", err)
	}
	s.ID = id
	return nil
}

// Stats tallies the votes of a grid within one timeslot.
func (r *SignalRepository) Stats(ctx context.Context, gridID string, timeslot time.Time) (models.SignalStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT signal, COUNT(*) FROM safety_signals
		WHERE grid_id = ? AND timeslot = ?
		GROUP BY signal`,
		gridID, toUnixNano(timeslot),
	)
	if err != nil {
		return models.SignalStats{}, fmt.Errorf("failed to query signal stats: %w", err)
	}
	defer rows.Close()

	var stats models.SignalStats
	for rows.Next() {
		var signal, n int
		if err := rows.Scan(&signal, &n); err != nil {
			return models.SignalStats{}, fmt.Errorf("failed to scan signal stats: %w", err)
		}
		switch models.SignalType(signal) {
		case models.SignalUnsafe:
			stats.Unsafe = n
		case models.SignalOK:
			stats.OK = n
		}
	}
	if err := rows.Err(); err != nil {
		return models.SignalStats{}, fmt.Errorf("failed to iterate signal stats: %w", err)
	}

	stats.Total = stats.Unsafe + stats.OK
	return stats, nil
}
