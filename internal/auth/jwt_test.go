package auth

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/safewalk-backend/internal/models"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, nil)
	identity := &models.Identity{UUID: "u-1", Account: "alice"}

	token, err := m.Generate(identity)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UUID)
	assert.Equal(t, "alice", claims.Account)
}

func TestValidateRejectsExpired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewJWTManager("test-secret", time.Hour, clock)

	token, err := m.Generate(&models.Identity{UUID: "u-1"})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	token, err := NewJWTManager("other", time.Hour, nil).Generate(&models.Identity{UUID: "u-1"})
	require.NoError(t, err)

	_, err = NewJWTManager("test-secret", time.Hour, nil).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager("test-secret", time.Hour, nil).Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewJWTManager("test-secret", time.Hour, nil).Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
