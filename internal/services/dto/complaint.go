package dto

import (
	"time"

	"excos_backend/internal/models"
)

// ---------------- Requests ----------------

type CreateComplaintRequest struct {
	ExamName          string    `json:"exam_name" validate:"required,max=200"`
	ExamType          string    `json:"exam_type" validate:"required,max=100"`
	ExamDate          time.Time `json:"exam_date" validate:"required,notfuture"`
	CourseCode        string    `json:"course_code" validate:"required,max=50"`
	Description       string    `json:"description" validate:"required,min=10,max=5000"`
	DesiredResolution string    `json:"desired_resolution" validate:"omitempty,max=2000"`
	EvidenceURL       string    `json:"evidence_url" validate:"omitempty,url"`

	// Contact fields used when the caller has no account yet; a student
	// record is looked up or created from them.
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
	StudentID string `json:"student_id" validate:"omitempty,max=50"`

	Department string `json:"department" validate:"omitempty,max=200"`
	Faculty    string `json:"faculty" validate:"omitempty,max=200"`
}

type UpdateStatusRequest struct {
	Status models.ComplaintStatus `json:"status" validate:"required,complaintstatus"`
	Note   string                 `json:"note" validate:"omitempty,max=2000"`
}

type RespondRequest struct {
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// ComplaintListQuery is bound from query parameters on list endpoints.
type ComplaintListQuery struct {
	Status   string `form:"status" validate:"omitempty,complaintstatus"`
	ExamType string `form:"exam_type"`
	Search   string `form:"search" validate:"omitempty,max=200"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// ---------------- Responses ----------------

type ComplaintResponse struct {
	ID                string                   `json:"id"`
	ReferenceNumber   string                   `json:"reference_number"`
	ExamName          string                   `json:"exam_name"`
	ExamType          string                   `json:"exam_type"`
	ExamDate          time.Time                `json:"exam_date"`
	CourseCode        string                   `json:"course_code"`
	Description       string                   `json:"description"`
	DesiredResolution string                   `json:"desired_resolution,omitempty"`
	EvidenceURL       string                   `json:"evidence_url,omitempty"`
	Status            models.ComplaintStatus   `json:"status"`
	Department        string                   `json:"department,omitempty"`
	Faculty           string                   `json:"faculty,omitempty"`
	Submitter         *UserDTO                 `json:"submitter,omitempty"`
	Responses         []ResponseDTO            `json:"responses,omitempty"`
	StatusHistory     []StatusHistoryDTO       `json:"status_history,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

type ResponseDTO struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

type StatusHistoryDTO struct {
	OldStatus models.ComplaintStatus `json:"old_status"`
	NewStatus models.ComplaintStatus `json:"new_status"`
	ChangedBy string                 `json:"changed_by"`
	Note      string                 `json:"note,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type ComplaintListResponse struct {
	Complaints []ComplaintSummary `json:"complaints"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ComplaintSummary is the list-view shape; the description and trails are
// only on the detail view.
type ComplaintSummary struct {
	ID              string                 `json:"id"`
	ReferenceNumber string                 `json:"reference_number"`
	ExamName        string                 `json:"exam_name"`
	ExamType        string                 `json:"exam_type"`
	CourseCode      string                 `json:"course_code"`
	Status          models.ComplaintStatus `json:"status"`
	Department      string                 `json:"department,omitempty"`
	SubmitterName   string                 `json:"submitter_name,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// NewComplaintResponse maps a complaint model with its preloaded trails.
func NewComplaintResponse(c *models.Complaint, includeSubmitter bool) *ComplaintResponse {
	resp := &ComplaintResponse{
		ID:                c.ID,
		ReferenceNumber:   c.ReferenceNumber,
		ExamName:          c.ExamName,
		ExamType:          c.ExamType,
		ExamDate:          c.ExamDate,
		CourseCode:        c.CourseCode,
		Description:       c.Description,
		DesiredResolution: c.DesiredResolution,
		EvidenceURL:       c.EvidenceURL,
		Status:            c.Status,
		Department:        c.Department,
		Faculty:           c.Faculty,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}

	if includeSubmitter && c.User != nil {
		u := NewUserDTO(c.User)
		resp.Submitter = &u
	}

	for _, r := range c.Responses {
		resp.Responses = append(resp.Responses, ResponseDTO{
			ID:         r.ID,
			AuthorID:   r.AuthorID,
			AuthorName: r.AuthorName,
			Message:    r.Message,
			CreatedAt:  r.CreatedAt,
		})
	}

	for _, h := range c.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, StatusHistoryDTO{
			OldStatus: h.OldStatus,
			NewStatus: h.NewStatus,
			ChangedBy: h.ChangedBy,
			Note:      h.Note,
			CreatedAt: h.CreatedAt,
		})
	}

	return resp
}

// NewComplaintSummary maps a complaint onto its list-view shape.
func NewComplaintSummary(c *models.Complaint) ComplaintSummary {
	summary := ComplaintSummary{
		ID:              c.ID,
		ReferenceNumber: c.ReferenceNumber,
		ExamName:        c.ExamName,
		ExamType:        c.ExamType,
		CourseCode:      c.CourseCode,
		Status:          c.Status,
		Department:      c.Department,
		CreatedAt:       c.CreatedAt,
	}
	if c.User != nil {
		summary.SubmitterName = c.User.FullName()
	}
	return summary
}
