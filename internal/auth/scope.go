package auth

import (
	"excos_backend/internal/models"

	"gorm.io/gorm"
)

// ScopeKind enumerates the visibility predicates complaints can be
// filtered by.
type ScopeKind int

const (
	// ScopeNone matches nothing (unknown admin position).
	ScopeNone ScopeKind = iota
	// ScopeOwner matches rows owned by the caller (students).
	ScopeOwner
	// ScopeDepartment matches rows in the caller's department.
	ScopeDepartment
	// ScopeFaculty matches rows in the caller's faculty.
	ScopeFaculty
	// ScopeAll matches every row.
	ScopeAll
)

// Scope is the resolved visibility predicate for one caller.
type Scope struct {
	Kind       ScopeKind
	UserID     string
	Department string
	Faculty    string
}

// adminScopeRules is the policy table: admin position → predicate kind.
// Extending visibility for a new position is a one-line change here.
var adminScopeRules = map[models.AdminPosition]ScopeKind{
	models.PositionLecturer:    ScopeDepartment,
	models.PositionHOD:         ScopeDepartment,
	models.PositionDean:        ScopeFaculty,
	models.PositionSystemAdmin: ScopeAll,
}

// ScopeFor resolves the caller's visibility scope from the session claims.
// Students always see their own rows; admins are resolved through the
// policy table, with unknown positions seeing nothing.
func ScopeFor(claims *SessionClaims) Scope {
	if claims.Role == models.UserRoleStudent {
		return Scope{Kind: ScopeOwner, UserID: claims.UserID}
	}

	kind, ok := adminScopeRules[claims.Position]
	if !ok {
		return Scope{Kind: ScopeNone}
	}

	return Scope{
		Kind:       kind,
		UserID:     claims.UserID,
		Department: claims.Department,
		Faculty:    claims.Faculty,
	}
}

// Apply attaches the scope predicate to a complaints query.
func (s Scope) Apply(query *gorm.DB) *gorm.DB {
	switch s.Kind {
	case ScopeOwner:
		return query.Where("user_id = ?", s.UserID)
	case ScopeDepartment:
		return query.Where("department = ?", s.Department)
	case ScopeFaculty:
		return query.Where("faculty = ?", s.Faculty)
	case ScopeAll:
		return query
	default:
		// Matches nothing
		return query.Where("1 = 0")
	}
}

// Allows reports whether a single complaint falls inside the scope. Used
// on detail fetches so the predicate stays identical to the list path.
func (s Scope) Allows(c *models.Complaint) bool {
	switch s.Kind {
	case ScopeOwner:
		return c.UserID == s.UserID
	case ScopeDepartment:
		return c.Department == s.Department
	case ScopeFaculty:
		return c.Faculty == s.Faculty
	case ScopeAll:
		return true
	default:
		return false
	}
}
