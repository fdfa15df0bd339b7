package repositories

import (
	"encoding/json"

	"excos_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(log *models.AuditLog) error
	FindByUser(userID string, limit, offset int) ([]models.AuditLog, int64, error)
	FindByEntity(entity, entityID string) ([]models.AuditLog, error)

	WithTx(tx *gorm.DB) AuditLogRepository
}

type AuditLogRepositoryImpl struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &AuditLogRepositoryImpl{db: db}
}

func (r *AuditLogRepositoryImpl) WithTx(tx *gorm.DB) AuditLogRepository {
	return &AuditLogRepositoryImpl{db: tx}
}

// NewAuditEntry builds an audit row with the details marshalled to JSON.
func NewAuditEntry(userID, action, entity, entityID, ip string, details map[string]interface{}) *models.AuditLog {
	var data datatypes.JSON
	if details != nil {
		payload, _ := json.Marshal(details)
		data = datatypes.JSON(payload)
	}
	return &models.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		IP:       ip,
		Details:  data,
	}
}

func (r *AuditLogRepositoryImpl) Create(log *models.AuditLog) error {
	return r.db.Create(log).Error
}

func (r *AuditLogRepositoryImpl) FindByUser(userID string, limit, offset int) ([]models.AuditLog, int64, error) {
	query := r.db.Model(&models.AuditLog{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&logs).Error
	return logs, total, err
}

func (r *AuditLogRepositoryImpl) FindByEntity(entity, entityID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
