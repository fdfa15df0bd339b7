package repositories

import (
	"errors"
	"strings"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrComplaintNotFound = errors.New("complaint not found")
	// ErrDuplicateReference marks a reference-number collision on insert.
	// Callers regenerate the number and retry.
	ErrDuplicateReference = errors.New("duplicate reference number")
)

// ComplaintFilter narrows a scoped complaint listing.
type ComplaintFilter struct {
	Status   models.ComplaintStatus
	ExamType string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

type ComplaintRepository interface {
	CreateWithSubmitter(submitter *models.User, complaint *models.Complaint) error
	FindByID(id string) (*models.Complaint, error)
	FindByReference(referenceNumber string) (*models.Complaint, error)
	FindScoped(scope auth.Scope, filter ComplaintFilter) ([]models.Complaint, int64, error)
	UpdateStatus(id string, newStatus models.ComplaintStatus, changedBy, note string) (*models.Complaint, error)
	AppendResponse(response *models.ComplaintResponse, moveToUnderReview bool) (*models.Complaint, error)

	WithTx(tx *gorm.DB) ComplaintRepository
}

type ComplaintRepositoryImpl struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &ComplaintRepositoryImpl{db: db}
}

func (r *ComplaintRepositoryImpl) WithTx(tx *gorm.DB) ComplaintRepository {
	return &ComplaintRepositoryImpl{db: tx}
}

// CreateWithSubmitter inserts the complaint and, when submitter is set,
// the owning student row in the same transaction. A reference collision
// rolls both back, so a failed submission leaves no orphaned user row.
func (r *ComplaintRepositoryImpl) CreateWithSubmitter(submitter *models.User, complaint *models.Complaint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if submitter != nil {
			if err := tx.Create(submitter).Error; err != nil {
				return err
			}
			complaint.UserID = submitter.ID
		}

		if err := tx.Create(complaint).Error; err != nil {
			if isDuplicateReference(err) {
				return ErrDuplicateReference
			}
			return err
		}
		return nil
	})
}

// isDuplicateReference detects a unique-index violation on
// reference_number from the driver error text.
func isDuplicateReference(err error) bool {
	return strings.Contains(err.Error(), "reference_number") &&
		(strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique"))
}

func (r *ComplaintRepositoryImpl) FindByID(id string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.Preload("User").
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&complaint, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepositoryImpl) FindByReference(referenceNumber string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.Preload("Responses", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&complaint, "reference_number = ?", referenceNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepositoryImpl) FindScoped(scope auth.Scope, filter ComplaintFilter) ([]models.Complaint, int64, error) {
	query := scope.Apply(r.db.Model(&models.Complaint{}))

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ExamType != "" {
		query = query.Where("exam_type = ?", filter.ExamType)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where(
			"reference_number ILIKE ? OR exam_name ILIKE ? OR course_code ILIKE ?",
			search, search, search,
		)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var complaints []models.Complaint
	err := query.Preload("User").
		Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&complaints).Error
	if err != nil {
		return nil, 0, err
	}

	return complaints, total, nil
}

// UpdateStatus sets the new status and records a history row in the same
// transaction. Every call writes history, including no-op transitions, so
// the audit trail shows each admin action.
func (r *ComplaintRepositoryImpl) UpdateStatus(id string, newStatus models.ComplaintStatus, changedBy, note string) (*models.Complaint, error) {
	var complaint models.Complaint

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&complaint, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrComplaintNotFound
			}
			return err
		}

		oldStatus := complaint.Status

		if err := tx.Model(&complaint).Update("status", newStatus).Error; err != nil {
			return err
		}

		history := &models.ComplaintStatusHistory{
			ComplaintID: complaint.ID,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
			ChangedBy:   changedBy,
			Note:        note,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return nil, err
	}

	return &complaint, nil
}

// AppendResponse stores an admin response; when moveToUnderReview is set,
// a pending complaint transitions to under-review in the same transaction
// with its history row.
func (r *ComplaintRepositoryImpl) AppendResponse(response *models.ComplaintResponse, moveToUnderReview bool) (*models.Complaint, error) {
	var complaint models.Complaint

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&complaint, "id = ?", response.ComplaintID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrComplaintNotFound
			}
			return err
		}

		if err := tx.Create(response).Error; err != nil {
			return err
		}

		if moveToUnderReview && complaint.Status == models.StatusPending {
			if err := tx.Model(&complaint).Update("status", models.StatusUnderReview).Error; err != nil {
				return err
			}
			history := &models.ComplaintStatusHistory{
				ComplaintID: complaint.ID,
				OldStatus:   models.StatusPending,
				NewStatus:   models.StatusUnderReview,
				ChangedBy:   response.AuthorID,
				Note:        "moved to under-review on first response",
			}
			if err := tx.Create(history).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &complaint, nil
}
