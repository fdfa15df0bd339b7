package db

import (
	"excos_backend/internal/models"
)

// AutoMigrate creates or updates the schema. GORM's migrator is idempotent,
// so this is safe to run on every startup.
func (d *DB) AutoMigrate() error {
	if err := d.Gorm.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	return d.Gorm.AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.ComplaintResponse{},
		&models.ComplaintStatusHistory{},
		&models.Notification{},
		&models.PasswordResetToken{},
		&models.AuditLog{},
	)
}
