package dto

import (
	"time"

	"excos_backend/internal/models"
)

// ---------------- Requests ----------------

type RegisterRequest struct {
	FirstName string          `json:"first_name" validate:"required,max=100"`
	LastName  string          `json:"last_name" validate:"required,max=100"`
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,min=8"`
	Role      models.UserRole `json:"role" validate:"required,oneof=student admin"`

	// Student fields
	StudentID string `json:"student_id,omitempty" validate:"required_if=Role student"`
	Level     string `json:"level,omitempty"`

	// Admin fields
	StaffID  string                `json:"staff_id,omitempty" validate:"required_if=Role admin"`
	Position models.AdminPosition  `json:"position,omitempty" validate:"required_if=Role admin,omitempty,oneof=lecturer hod dean system-administrator"`

	Department string `json:"department,omitempty"`
	Faculty    string `json:"faculty,omitempty"`
}

type LoginRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Role     models.UserRole `json:"role" validate:"required,oneof=student admin"`
	Password string          `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ---------------- Responses ----------------

// AuthResponse carries the signed session token plus the user payload.
// The handler also sets the token as an HTTP-only cookie.
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserDTO struct {
	ID              string               `json:"id"`
	FirstName       string               `json:"first_name"`
	LastName        string               `json:"last_name"`
	Email           string               `json:"email"`
	Role            models.UserRole      `json:"role"`
	StudentID       string               `json:"student_id,omitempty"`
	StaffID         string               `json:"staff_id,omitempty"`
	Level           string               `json:"level,omitempty"`
	Position        models.AdminPosition `json:"position,omitempty"`
	Department      string               `json:"department,omitempty"`
	Faculty         string               `json:"faculty,omitempty"`
	ProfileImageURL string               `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// NewUserDTO maps a user model onto its API shape.
func NewUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:              user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Email:           user.Email,
		Role:            user.Role,
		StudentID:       user.StudentID,
		StaffID:         user.StaffID,
		Level:           user.Level,
		Position:        user.Position,
		Department:      user.Department,
		Faculty:         user.Faculty,
		ProfileImageURL: user.ProfileImageURL,
		CreatedAt:       user.CreatedAt,
	}
}
