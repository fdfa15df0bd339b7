package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/email"
	"excos_backend/internal/logger"
	"excos_backend/internal/models"
	"excos_backend/internal/repositories"
	"excos_backend/internal/services/dto"
	"excos_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const resetTokenTTL = time.Hour

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, ip string) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, claims *auth.SessionClaims, ip string)
	GetCurrentUser(userID string) (*dto.UserDTO, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest, ip string) error
	RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest) error
	ResetPassword(ctx context.Context, req *dto.PasswordResetConfirm, ip string) error
}

type authService struct {
	db            *gorm.DB
	userRepo      repositories.UserRepository
	resetRepo     repositories.PasswordResetTokenRepository
	auditRepo     repositories.AuditLogRepository
	emailSender   email.Sender
	sessionSecret string
	sessionTTL    time.Duration
	appBaseURL    string
}

func NewAuthService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	resetRepo repositories.PasswordResetTokenRepository,
	auditRepo repositories.AuditLogRepository,
	emailSender email.Sender,
	sessionSecret string,
	sessionTTL time.Duration,
	appBaseURL string,
) AuthService {
	return &authService{
		db:            db,
		userRepo:      userRepo,
		resetRepo:     resetRepo,
		auditRepo:     auditRepo,
		emailSender:   emailSender,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
		appBaseURL:    appBaseURL,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, ip string) (*dto.AuthResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	if req.Role == models.UserRoleAdmin && !models.ValidPositions[req.Position] {
		return nil, apperrors.ErrInvalidUserRole
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		StudentID:    req.StudentID,
		StaffID:      req.StaffID,
		Level:        req.Level,
		Position:     req.Position,
		Department:   req.Department,
		Faculty:      req.Faculty,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		entry := repositories.NewAuditEntry(user.ID, "register", "user", user.ID, ip, map[string]interface{}{
			"role": string(user.Role),
		})
		return s.auditRepo.WithTx(tx).Create(entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "role", user.Role)

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	// The role acts as a partition: an admin cannot log in through the
	// student form and vice versa.
	if user.Role != req.Role {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	entry := repositories.NewAuditEntry(user.ID, "login", "user", user.ID, ip, nil)
	if err := s.auditRepo.Create(entry); err != nil {
		logger.CtxWarn(ctx, "failed to write login audit entry", "error", err)
	}

	logger.CtxInfo(ctx, "user logged in", "user_id", user.ID)

	return s.buildAuthResponse(user)
}

// Logout only audits: the token stays valid until expiry since there is
// no server-side session store to invalidate.
func (s *authService) Logout(ctx context.Context, claims *auth.SessionClaims, ip string) {
	if claims == nil {
		return
	}

	entry := repositories.NewAuditEntry(claims.UserID, "logout", "user", claims.UserID, ip, nil)
	if err := s.auditRepo.Create(entry); err != nil {
		logger.CtxWarn(ctx, "failed to write logout audit entry", "error", err)
	}

	logger.CtxInfo(ctx, "user logged out", "user_id", claims.UserID)
}

func (s *authService) GetCurrentUser(userID string) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	u := dto.NewUserDTO(user)
	return &u, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest, ip string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdatePassword(user.ID, hash); err != nil {
			return err
		}
		entry := repositories.NewAuditEntry(user.ID, "change_password", "user", user.ID, ip, nil)
		return s.auditRepo.WithTx(tx).Create(entry)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "password changed", "user_id", user.ID)
	return nil
}

// RequestPasswordReset issues a single-use token and emails the reset link.
// Unknown emails succeed silently so the endpoint cannot be used to probe
// which addresses are registered.
func (s *authService) RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest) error {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxInfo(ctx, "password reset requested for unknown email")
			return nil
		}
		return apperrors.InternalError(err)
	}

	token := uuid.New().String()
	row := &models.PasswordResetToken{
		UserID:    user.ID,
		Role:      user.Role,
		Token:     token,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.resetRepo.WithTx(tx)
		if err := repo.DeleteForUser(user.ID); err != nil {
			return err
		}
		return repo.Create(row)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, token)

	// Delivery is best-effort; the token row is already committed.
	go func() {
		if err := s.emailSender.SendPasswordReset(user.Email, user.FullName(), resetURL); err != nil {
			logger.Error("failed to send password reset email", "user_id", user.ID, "error", err)
		}
	}()

	logger.CtxInfo(ctx, "password reset token issued", "user_id", user.ID)
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *dto.PasswordResetConfirm, ip string) error {
	row, err := s.resetRepo.FindValid(req.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.InternalError(err)
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdatePassword(row.UserID, hash); err != nil {
			return err
		}
		if err := s.resetRepo.WithTx(tx).Consume(req.Token); err != nil {
			return err
		}
		entry := repositories.NewAuditEntry(row.UserID, "reset_password", "user", row.UserID, ip, nil)
		return s.auditRepo.WithTx(tx).Create(entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			// Consumed concurrently; single use holds.
			return apperrors.ErrInvalidToken
		}
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "password reset completed", "user_id", row.UserID)
	return nil
}

func (s *authService) buildAuthResponse(user *models.User) (*dto.AuthResponse, error) {
	token, err := auth.NewSessionToken(user, s.sessionSecret, s.sessionTTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  dto.NewUserDTO(user),
	}, nil
}
