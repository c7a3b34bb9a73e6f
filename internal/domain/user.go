package domain

import "time"

// Role enumerates the responsibility hierarchy used for escalation targeting.
type Role string

const (
	RoleContributor Role = "CONTRIBUTOR"
	RoleAdmin       Role = "ADMIN"
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
)

// Rank gives roles a total order; higher means more authority.
func (r Role) Rank() int {
	switch r {
	case RoleSystemAdmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleContributor:
		return 1
	default:
		return 0
	}
}

// Above reports whether r outranks other.
func (r Role) Above(other Role) bool {
	return r.Rank() > other.Rank()
}

// User is the read-only directory view consumed for escalation targeting.
// ApplicationID is nil for system-level users.
type User struct {
	ID            string
	ApplicationID *string
	Name          string
	Email         string
	Role          Role
	IsActive      bool
	CreatedAt     time.Time
}
