package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/safewalk-backend/internal/database"
	"github.com/jengzang/safewalk-backend/internal/models"
)

const identityColumns = `id, uuid, account, name, id_no_hash, count, created_at, updated_at`

// IdentityRepository handles database operations for identities
type IdentityRepository struct {
	db DBTX
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db DBTX) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *IdentityRepository) WithTx(tx *sql.Tx) *IdentityRepository {
	return &IdentityRepository{db: tx}
}

// GetByUUID retrieves an identity by its public uuid
func (r *IdentityRepository) GetByUUID(ctx context.Context, uuid string) (*models.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE uuid = ?`, uuid)
	identity, err := scanIdentity(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity %s: %w", uuid, err)
	}
	return identity, nil
}

// GetByAccount retrieves an identity by account name
func (r *IdentityRepository) GetByAccount(ctx context.Context, account string) (*models.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE account = ?`, account)
	identity, err := scanIdentity(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity by account: %w", err)
	}
	return identity, nil
}

// Create inserts a new identity and sets its ID.
func (r *IdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (uuid, account, name, id_no_hash, count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		identity.UUID, identity.Account, identity.Name, identity.CredentialHash,
		identity.ActiveReportCount, toUnixNano(identity.CreatedAt), toUnixNano(identity.UpdatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("failed to create identity: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get identity id: %w", err)
	}
	identity.ID = id
	return nil
}

// SetCount overwrites an identity's active report count.
func (r *IdentityRepository) SetCount(ctx context.Context, uuid string, count int, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE identities SET count = ?, updated_at = ? WHERE uuid = ?`,
		count, toUnixNano(now), uuid,
	)
	if err != nil {
		return fmt.Errorf("failed to update identity count: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update identity count %s: %w", uuid, ErrNotFound)
	}
	return nil
}

func scanIdentity(row *sql.Row) (*models.Identity, error) {
	var (
		identity  models.Identity
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&identity.ID, &identity.UUID, &identity.Account, &identity.Name,
		&identity.CredentialHash, &identity.ActiveReportCount, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	identity.CreatedAt = fromUnixNano(createdAt)
	identity.UpdatedAt = fromUnixNano(updatedAt)
	return &identity, nil
}
