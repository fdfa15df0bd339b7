package models

import (
	"time"
)

type Complaint struct {
	BaseModel
	ReferenceNumber string `gorm:"uniqueIndex;not null" json:"reference_number"`
	UserID          string `gorm:"not null;index" json:"user_id"`

	// Exam metadata
	ExamName   string    `gorm:"not null" json:"exam_name"`
	ExamType   string    `gorm:"not null;index" json:"exam_type"`
	ExamDate   time.Time `gorm:"not null" json:"exam_date"`
	CourseCode string    `json:"course_code,omitempty"`

	Description       string `gorm:"type:text;not null" json:"description"`
	DesiredResolution string `gorm:"type:text" json:"desired_resolution,omitempty"`
	EvidenceURL       string `json:"evidence_url,omitempty"`

	Status ComplaintStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// Scoping columns, denormalized from the owning student for the
	// role-visibility predicates
	Department string `gorm:"index" json:"department,omitempty"`
	Faculty    string `gorm:"index" json:"faculty,omitempty"`

	// Relations
	User          *User                    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Responses     []ComplaintResponse      `gorm:"foreignKey:ComplaintID" json:"responses,omitempty"`
	StatusHistory []ComplaintStatusHistory `gorm:"foreignKey:ComplaintID" json:"status_history,omitempty"`
}

// ComplaintResponse is an admin- or system-authored message on a complaint.
// Rows are append-only.
type ComplaintResponse struct {
	BaseModel
	ComplaintID string `gorm:"not null;index" json:"complaint_id"`
	AuthorID    string `gorm:"not null" json:"author_id"`
	AuthorName  string `json:"author_name,omitempty"`
	Message     string `gorm:"type:text;not null" json:"message"`
}

// ComplaintStatusHistory is the append-only audit row written alongside
// every status mutation, in the same transaction.
type ComplaintStatusHistory struct {
	BaseModel
	ComplaintID string          `gorm:"not null;index" json:"complaint_id"`
	OldStatus   ComplaintStatus `gorm:"type:varchar(20)" json:"old_status"`
	NewStatus   ComplaintStatus `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy   string          `gorm:"not null" json:"changed_by"`
	Note        string          `json:"note,omitempty"`
}
