package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/safewalk-backend/internal/apperrors"
	"github.com/jengzang/safewalk-backend/internal/auth"
	"github.com/jengzang/safewalk-backend/pkg/response"
)

// Gin context keys set by RequireAuth.
const (
	IdentityIDKey = "identity_uuid"
	AccountKey    = "identity_account"
)

// IdentityID returns the authenticated identity's uuid, or "" when the
// request was not authenticated.
func IdentityID(c *gin.Context) string {
	return c.GetString(IdentityIDKey)
}

// Account returns the authenticated identity's account name.
func Account(c *gin.Context) string {
	return c.GetString(AccountKey)
}

// RequireAuth validates the bearer token and stores its identity on the
// context.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Fail(c, apperrors.KindUnauthenticated, "Authorization token required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Fail(c, apperrors.KindUnauthenticated, "Authorization header must be: Bearer <token>")
			return
		}

		claims, err := jwtManager.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Fail(c, apperrors.KindUnauthenticated, "Invalid or expired token")
			return
		}

		c.Set(IdentityIDKey, claims.UUID)
		c.Set(AccountKey, claims.Account)
		c.Next()
	}
}

// AuthorizeOwner fails with PermissionDenied when the request is
// authenticated as someone other than ownerID. Unauthenticated requests
// pass; routes that need a token sit behind RequireAuth.
func AuthorizeOwner(c *gin.Context, ownerID string) error {
	id := IdentityID(c)
	if id != "" && id != ownerID {
		return apperrors.PermissionDenied("Token does not belong to uuid %s", ownerID)
	}
	return nil
}
