package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	BaseModel
	FirstName    string   `gorm:"not null" json:"first_name"`
	LastName     string   `gorm:"not null" json:"last_name"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`

	// Student attributes
	StudentID string `gorm:"uniqueIndex:idx_users_student_id,where:student_id <> ''" json:"student_id,omitempty"`
	Level     string `json:"level,omitempty"`

	// Admin attributes
	StaffID  string        `gorm:"uniqueIndex:idx_users_staff_id,where:staff_id <> ''" json:"staff_id,omitempty"`
	Position AdminPosition `gorm:"type:varchar(30)" json:"position,omitempty"`

	// Shared scoping attributes
	Department string `gorm:"index" json:"department,omitempty"`
	Faculty    string `gorm:"index" json:"faculty,omitempty"`

	// Courses taught (admins) or taken (students), stored as a JSON list
	Courses datatypes.JSON `gorm:"type:jsonb" json:"courses,omitempty"`

	ProfileImageURL string `json:"profile_image_url,omitempty"`

	// Relations
	Complaints    []Complaint    `gorm:"foreignKey:UserID" json:"-"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"-"`
}

// FullName is used in notifications and email greetings.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// PasswordResetToken is single-use and time-boxed. Tokens are keyed by
// user+role so a student token cannot reset an admin account sharing the
// same mailbox.
type PasswordResetToken struct {
	BaseModel
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Role      UserRole  `gorm:"type:varchar(20);not null" json:"role"`
	Token     string    `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// AuditLog records sensitive actions (logins, status changes, resets).
type AuditLog struct {
	BaseModel
	UserID   string         `gorm:"index" json:"user_id"`
	Action   string         `gorm:"not null" json:"action"`
	Entity   string         `json:"entity,omitempty"`
	EntityID string         `json:"entity_id,omitempty"`
	Details  datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	IP       string         `json:"ip,omitempty"`
}
