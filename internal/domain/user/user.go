// Package user defines the portal principal, its roles, and the repository
// interface for persisting user profiles. The email-convention policy that
// derives a profile from an institutional address also lives here so that
// provisioning stays decoupled from the database.
package user

import "time"

// Role is a portal access level. Every principal has exactly one.
type Role string

const (
	RoleStudent          Role = "student"
	RoleTeacher          Role = "teacher"
	RolePlacementOfficer Role = "placement-officer"
	RoleAdmin            Role = "admin"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RolePlacementOfficer, RoleAdmin:
		return true
	}
	return false
}

// Principal is an authenticated portal user. ID is the identity-provider
// subject; the remaining fields come from the users table.
type Principal struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Department   string    `json:"department,omitempty"`
	RollNumber   string    `json:"rollNumber,omitempty"` // students only
	EmployeeID   string    `json:"employeeId,omitempty"` // staff only
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLoginAt  time.Time `json:"lastLoginAt"`
}

// HasRole reports whether the principal holds any of the given roles.
// Admins pass every check.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
