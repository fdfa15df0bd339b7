package auth

import (
	"testing"
	"time"

	"excos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	u := &models.User{
		Role:       models.UserRoleAdmin,
		Position:   models.PositionDean,
		Department: "Computer Science",
		Faculty:    "Engineering",
	}
	u.ID = "user-1"
	return u
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewSessionToken(testUser(), "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseSessionToken(token, "secret")
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.UserRoleAdmin, claims.Role)
	assert.Equal(t, models.PositionDean, claims.Position)
	assert.Equal(t, "Engineering", claims.Faculty)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := NewSessionToken(testUser(), "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := NewSessionToken(testUser(), "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "secret")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionTokenGarbage(t *testing.T) {
	_, err := ParseSessionToken("not-a-token", "secret")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
