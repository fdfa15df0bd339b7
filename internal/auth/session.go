package auth

import (
	"errors"
	"time"

	"excos_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie the session token travels in.
const SessionCookieName = "session"

// SessionClaims is the signed session payload. The cookie is the full
// session state; signing it is what lets handlers trust its contents
// without a server-side session store.
type SessionClaims struct {
	UserID     string               `json:"user_id"`
	Role       models.UserRole      `json:"role"`
	Position   models.AdminPosition `json:"position,omitempty"`
	Department string               `json:"department,omitempty"`
	Faculty    string               `json:"faculty,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidSession = errors.New("invalid or expired session token")

// NewSessionToken signs a session token for the user. ttl is typically 7
// days to match the cookie max-age.
func NewSessionToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID:     user.ID,
		Role:       user.Role,
		Position:   user.Position,
		Department: user.Department,
		Faculty:    user.Faculty,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken verifies the signature and expiry and returns the
// session identity.
func ParseSessionToken(tokenStr, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
