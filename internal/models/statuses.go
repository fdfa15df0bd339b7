package models

type UserRole string
type AdminPosition string
type ComplaintStatus string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"

	PositionLecturer    AdminPosition = "lecturer"
	PositionHOD         AdminPosition = "hod"
	PositionDean        AdminPosition = "dean"
	PositionSystemAdmin AdminPosition = "system-administrator"

	StatusPending     ComplaintStatus = "pending"
	StatusUnderReview ComplaintStatus = "under-review"
	StatusResolved    ComplaintStatus = "resolved"
	StatusRejected    ComplaintStatus = "rejected"
)

// ValidStatuses is the fixed status vocabulary. Transitions are not
// restricted beyond membership here: any admin may set any status, and the
// last write wins.
var ValidStatuses = map[ComplaintStatus]bool{
	StatusPending:     true,
	StatusUnderReview: true,
	StatusResolved:    true,
	StatusRejected:    true,
}

// ValidRoles lists the account roles the system issues.
var ValidRoles = map[UserRole]bool{
	UserRoleStudent: true,
	UserRoleAdmin:   true,
}

// ValidPositions lists the admin positions the scope policy knows about.
var ValidPositions = map[AdminPosition]bool{
	PositionLecturer:    true,
	PositionHOD:         true,
	PositionDean:        true,
	PositionSystemAdmin: true,
}
