package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/spatial"
)

const dangerPointColumns = `id, uuuid, uuid, lat, lng, type, alpha, observed_at, created_at`

// DangerPointRepository handles database operations for danger points
type DangerPointRepository struct {
	db DBTX
}

// NewDangerPointRepository creates a new danger point repository
func NewDangerPointRepository(db DBTX) *DangerPointRepository {
	return &DangerPointRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *DangerPointRepository) WithTx(tx *sql.Tx) *DangerPointRepository {
	return &DangerPointRepository{db: tx}
}

// Insert stores a new point and sets its ID.
func (r *DangerPointRepository) Insert(ctx context.Context, p *models.DangerPoint) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO danger_points (uuuid, uuid, lat, lng, type, alpha, observed_at, created_at, cell_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PublicID, p.OwnerID, p.Lat, p.Lng, int(p.Category), p.Alpha,
		toUnixNano(p.ObservedAt), toUnixNano(p.CreatedAt), spatial.CellKey(p.Lat, p.Lng),
	)
	if err != nil {
		return fmt.Errorf("failed to insert danger point: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get danger point id: %w", err)
	}
	p.ID = id
	return nil
}

// CountByOwner returns how many points an owner currently holds.
func (r *DangerPointRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM danger_points WHERE uuid = ?`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count danger points: %w", err)
	}
	return n, nil
}

// OldestByOwner returns the owner's earliest created point, ties broken by id.
func (r *DangerPointRepository) OldestByOwner(ctx context.Context, ownerID string) (*models.DangerPoint, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dangerPointColumns+` FROM danger_points
		WHERE uuid = ? ORDER BY created_at ASC, id ASC LIMIT 1`, ownerID)
	p, err := scanDangerPoint(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get oldest danger point: %w", err)
	}
	return p, nil
}

// GetByPublicID retrieves a point by its public uuid
func (r *DangerPointRepository) GetByPublicID(ctx context.Context, publicID string) (*models.DangerPoint, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dangerPointColumns+` FROM danger_points WHERE uuuid = ?`, publicID)
	p, err := scanDangerPoint(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get danger point %s: %w", publicID, err)
	}
	return p, nil
}

// Delete removes a point by id.
func (r *DangerPointRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM danger_points WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete danger point: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to delete danger point %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateAlphaByOwner writes alpha onto every point the owner holds.
func (r *DangerPointRepository) UpdateAlphaByOwner(ctx context.Context, ownerID string, alpha float64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE danger_points SET alpha = ? WHERE uuid = ?`, alpha, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to update alpha: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get updated rows: %w", err)
	}
	return n, nil
}

// ListByOwner returns the owner's points, most recent first.
func (r *DangerPointRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.DangerPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dangerPointColumns+` FROM danger_points
		WHERE uuid = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query danger points: %w", err)
	}
	defer rows.Close()

	return scanDangerPoints(rows)
}

// WithinRadius returns every point within radiusMeters great-circle distance
// of (lat, lng), ordered by id. The S2 covering narrows the scan to a few
// index ranges; the exact distance check runs here.
func (r *DangerPointRepository) WithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]models.DangerPoint, error) {
	ranges := spatial.CoveringRanges(lat, lng, radiusMeters)
	if len(ranges) == 0 {
		return []models.DangerPoint{}, nil
	}

	conditions := make([]string, 0, len(ranges))
	args := make([]any, 0, 2*len(ranges))
	for _, kr := range ranges {
		conditions = append(conditions, "cell_key BETWEEN ? AND ?")
		args = append(args, kr.Min, kr.Max)
	}

	query := `SELECT ` + dangerPointColumns + ` FROM danger_points WHERE ` +
		strings.Join(conditions, " OR ") + ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query danger points in range: %w", err)
	}
	defer rows.Close()

	candidates, err := scanDangerPoints(rows)
	if err != nil {
		return nil, err
	}

	inRange := candidates[:0]
	for _, p := range candidates {
		if spatial.HaversineDistance(lat, lng, p.Lat, p.Lng) <= radiusMeters {
			inRange = append(inRange, p)
		}
	}
	return inRange, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDangerPoint(row rowScanner) (*models.DangerPoint, error) {
	var (
		p          models.DangerPoint
		category   int
		observedAt int64
		createdAt  int64
	)
	err := row.Scan(&p.ID, &p.PublicID, &p.OwnerID, &p.Lat, &p.Lng, &category, &p.Alpha, &observedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Category = models.Category(category)
	p.ObservedAt = fromUnixNano(observedAt)
	p.CreatedAt = fromUnixNano(createdAt)
	return &p, nil
}

func scanDangerPoints(rows *sql.Rows) ([]models.DangerPoint, error) {
	points := []models.DangerPoint{}
	for rows.Next() {
		p, err := scanDangerPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan danger point: %w", err)
		}
		points = append(points, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate danger points: %w", err)
	}
	return points, nil
}
