package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/jengzang/safewalk-backend/internal/apperrors"
	"github.com/jengzang/safewalk-backend/internal/auth"
	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/repository"
)

const implicitName = "Unknown"

// implicitAccount names an identity created by its first report.
func implicitAccount(ownerID string) string {
	if len(ownerID) > 8 {
		ownerID = ownerID[:8]
	}
	return "user_" + ownerID
}

// Session is a signed token and the identity it was issued to.
type Session struct {
	Token    string           `json:"token"`
	Identity *models.Identity `json:"user"`
}

// IdentityService handles registration, login and profile lookups
type IdentityService struct {
	identities *repository.IdentityRepository
	jwt        *auth.JWTManager
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(identities *repository.IdentityRepository, jwt *auth.JWTManager, clock clockwork.Clock, logger *slog.Logger) *IdentityService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{identities: identities, jwt: jwt, clock: clock, logger: logger}
}

// Register creates an identity with a fresh uuid and a hashed id number.
func (s *IdentityService) Register(ctx context.Context, account, idNo, name string) (*Session, error) {
	account = strings.TrimSpace(account)
	name = strings.TrimSpace(name)
	if account == "" || idNo == "" || name == "" {
		return nil, apperrors.InvalidArgument("Missing required fields: account, idNo, name")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(idNo), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.InvalidArgument("idNo cannot be used as a credential")
	}

	now := s.clock.Now().UTC()
	identity := &models.Identity{
		UUID:           uuid.NewString(),
		Account:        account,
		Name:           name,
		CredentialHash: string(hash),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("Account already exists")
		}
		s.logger.Error("failed to register identity", "account", account, "error", err)
		return nil, apperrors.Storage(err)
	}

	s.logger.Info("identity registered", "uuid", identity.UUID, "account", account)
	return s.issue(identity)
}

// Login checks uuid and id number and issues a token.
func (s *IdentityService) Login(ctx context.Context, identityID, idNo string) (*Session, error) {
	if identityID == "" || idNo == "" {
		return nil, apperrors.InvalidArgument("Missing required fields: uuid, idNo")
	}

	identity, err := s.identities.GetByUUID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		s.logger.Error("failed to load identity", "uuid", identityID, "error", err)
		return nil, apperrors.Storage(err)
	}

	if !identity.HasCredential() {
		return nil, apperrors.Unauthenticated("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.CredentialHash), []byte(idNo)); err != nil {
		return nil, apperrors.Unauthenticated("Invalid credentials")
	}

	return s.issue(identity)
}

// Me returns the identity behind a validated token.
func (s *IdentityService) Me(ctx context.Context, identityID string) (*models.Identity, error) {
	identity, err := s.identities.GetByUUID(ctx, identityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Identity not found")
	}
	if err != nil {
		s.logger.Error("failed to load identity", "uuid", identityID, "error", err)
		return nil, apperrors.Storage(err)
	}
	return identity, nil
}

func (s *IdentityService) issue(identity *models.Identity) (*Session, error) {
	token, err := s.jwt.Generate(identity)
	if err != nil {
		s.logger.Error("failed to generate token", "uuid", identity.UUID, "error", err)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, Identity: identity}, nil
}
