package repositories

import (
	"errors"
	"time"

	"excos_backend/internal/models"

	"gorm.io/gorm"
)

var ErrResetTokenNotFound = errors.New("password reset token not found")

type PasswordResetTokenRepository interface {
	Create(token *models.PasswordResetToken) error
	FindValid(token string) (*models.PasswordResetToken, error)
	Consume(token string) error
	DeleteForUser(userID string) error
	DeleteExpired() (int64, error)

	WithTx(tx *gorm.DB) PasswordResetTokenRepository
}

type PasswordResetTokenRepositoryImpl struct {
	db *gorm.DB
}

func NewPasswordResetTokenRepository(db *gorm.DB) PasswordResetTokenRepository {
	return &PasswordResetTokenRepositoryImpl{db: db}
}

func (r *PasswordResetTokenRepositoryImpl) WithTx(tx *gorm.DB) PasswordResetTokenRepository {
	return &PasswordResetTokenRepositoryImpl{db: tx}
}

func (r *PasswordResetTokenRepositoryImpl) Create(token *models.PasswordResetToken) error {
	return r.db.Create(token).Error
}

// FindValid returns the token row only when it has not expired yet.
func (r *PasswordResetTokenRepositoryImpl) FindValid(token string) (*models.PasswordResetToken, error) {
	var row models.PasswordResetToken
	err := r.db.Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Consume deletes the token so it cannot be replayed.
func (r *PasswordResetTokenRepositoryImpl) Consume(token string) error {
	result := r.db.Where("token = ?", token).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResetTokenNotFound
	}
	return nil
}

// DeleteForUser drops outstanding tokens before issuing a fresh one.
func (r *PasswordResetTokenRepositoryImpl) DeleteForUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
}

func (r *PasswordResetTokenRepositoryImpl) DeleteExpired() (int64, error) {
	result := r.db.Where("expires_at <= ?", time.Now()).Delete(&models.PasswordResetToken{})
	return result.RowsAffected, result.Error
}
