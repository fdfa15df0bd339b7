package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/models"
	"excos_backend/internal/repositories"
	"excos_backend/pkg/apperrors"

	"excos_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*models.PasswordResetToken)}
}

func (r *fakeResetRepo) WithTx(tx *gorm.DB) repositories.PasswordResetTokenRepository { return r }

func (r *fakeResetRepo) Create(token *models.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *token
	r.tokens[token.Token] = &copied
	return nil
}

func (r *fakeResetRepo) FindValid(token string) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.tokens[token]
	if !ok || row.ExpiresAt.Before(time.Now()) {
		return nil, repositories.ErrResetTokenNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *fakeResetRepo) Consume(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return repositories.ErrResetTokenNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *fakeResetRepo) DeleteForUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.tokens {
		if v.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *fakeResetRepo) DeleteExpired() (int64, error) { return 0, nil }

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *fakeAuditRepo) WithTx(tx *gorm.DB) repositories.AuditLogRepository { return r }

func (r *fakeAuditRepo) Create(log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *log
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeAuditRepo) FindByUser(userID string, limit, offset int) ([]models.AuditLog, int64, error) {
	return nil, 0, nil
}

func (r *fakeAuditRepo) FindByEntity(entity, entityID string) ([]models.AuditLog, error) {
	return nil, nil
}

func newLoginFixture(t *testing.T) (AuthService, *fakeUserRepo, *fakeAuditRepo) {
	t.Helper()
	users := newFakeUserRepo()
	audit := &fakeAuditRepo{}
	svc := NewAuthService(nil, users, newFakeResetRepo(), audit, &fakeSender{},
		"test-secret", 168*time.Hour, "http://localhost:3000")
	return svc, users, audit
}

func seedUser(t *testing.T, users *fakeUserRepo, email, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	u := &models.User{
		FirstName:    "Ada",
		LastName:     "Obi",
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleStudent,
	}
	require.NoError(t, users.Create(u))
	return u
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials issue a signed session token", func(t *testing.T) {
		svc, users, audit := newLoginFixture(t)
		seedUser(t, users, "ada@student.edu", "password123")

		resp, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "ada@student.edu",
			Role:     models.UserRoleStudent,
			Password: "password123",
		}, "127.0.0.1")
		require.NoError(t, err)

		claims, err := auth.ParseSessionToken(resp.Token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims.UserID)
		assert.Equal(t, models.UserRoleStudent, claims.Role)

		// Login is audited
		require.Len(t, audit.entries, 1)
		assert.Equal(t, "login", audit.entries[0].Action)
	})

	t.Run("wrong password fails with invalid credentials", func(t *testing.T) {
		svc, users, _ := newLoginFixture(t)
		seedUser(t, users, "ada@student.edu", "password123")

		_, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "ada@student.edu",
			Role:     models.UserRoleStudent,
			Password: "wrong",
		}, "127.0.0.1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("role mismatch fails like a wrong password", func(t *testing.T) {
		svc, users, _ := newLoginFixture(t)
		seedUser(t, users, "ada@student.edu", "password123")

		_, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "ada@student.edu",
			Role:     models.UserRoleAdmin,
			Password: "password123",
		}, "127.0.0.1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email fails the same way as a wrong password", func(t *testing.T) {
		svc, _, _ := newLoginFixture(t)

		_, err := svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "nobody@student.edu",
			Role:     models.UserRoleStudent,
			Password: "password123",
		}, "127.0.0.1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestLogout(t *testing.T) {
	t.Run("audits the session end", func(t *testing.T) {
		svc, users, audit := newLoginFixture(t)
		u := seedUser(t, users, "ada@student.edu", "password123")

		svc.Logout(context.Background(), &auth.SessionClaims{
			UserID: u.ID,
			Role:   models.UserRoleStudent,
		}, "127.0.0.1")

		require.Len(t, audit.entries, 1)
		assert.Equal(t, "logout", audit.entries[0].Action)
		assert.Equal(t, u.ID, audit.entries[0].UserID)
		assert.Equal(t, "127.0.0.1", audit.entries[0].IP)
	})

	t.Run("no session means nothing to audit", func(t *testing.T) {
		svc, _, audit := newLoginFixture(t)

		svc.Logout(context.Background(), nil, "127.0.0.1")

		assert.Empty(t, audit.entries)
	})
}

func TestResetPasswordRejectsStaleTokens(t *testing.T) {
	t.Run("expired token", func(t *testing.T) {
		users := newFakeUserRepo()
		resets := newFakeResetRepo()
		svc := NewAuthService(nil, users, resets, &fakeAuditRepo{}, &fakeSender{},
			"test-secret", 168*time.Hour, "http://localhost:3000")

		u := seedUser(t, users, "ada@student.edu", "password123")
		require.NoError(t, resets.Create(&models.PasswordResetToken{
			UserID:    u.ID,
			Role:      u.Role,
			Token:     "expired-token",
			ExpiresAt: time.Now().Add(-time.Minute),
		}))

		err := svc.ResetPassword(context.Background(), &dto.PasswordResetConfirm{
			Token:       "expired-token",
			NewPassword: "newpassword123",
		}, "127.0.0.1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("unknown or already-consumed token", func(t *testing.T) {
		svc, _, _ := newLoginFixture(t)

		err := svc.ResetPassword(context.Background(), &dto.PasswordResetConfirm{
			Token:       "never-issued",
			NewPassword: "newpassword123",
		}, "127.0.0.1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}

func TestGetCurrentUser(t *testing.T) {
	svc, users, _ := newLoginFixture(t)
	u := seedUser(t, users, "ada@student.edu", "password123")

	got, err := svc.GetCurrentUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@student.edu", got.Email)

	_, err = svc.GetCurrentUser("missing")
	assert.Error(t, err)
}
