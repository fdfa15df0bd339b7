package dto

// UpdateProfileRequest updates the caller's own profile. All fields are
// optional; empty values leave the column unchanged.
type UpdateProfileRequest struct {
	FirstName  string `json:"first_name" validate:"omitempty,max=100"`
	LastName   string `json:"last_name" validate:"omitempty,max=100"`
	Level      string `json:"level" validate:"omitempty,max=50"`
	Department string `json:"department" validate:"omitempty,max=200"`
	Faculty    string `json:"faculty" validate:"omitempty,max=200"`
}

// UserListResponse is a page of accounts on the admin user listing.
type UserListResponse struct {
	Users    []UserDTO `json:"users"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}
