// Package entity contains the core business objects of the project.
package entity

import "strings"

// Role represents the permission class assigned to an identity.
type Role string

const (
	// RoleAdministrator grants full access, including identity management.
	RoleAdministrator Role = "Administrator"
	// RoleManager grants full access to workshop records but not to identities.
	RoleManager Role = "Manager"
	// RoleMechanic grants restricted access limited to the mechanic's own orders.
	RoleMechanic Role = "Mechanic"
	// RoleUnknown is the fallback for unparseable role input.
	RoleUnknown Role = "Unknown"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value. RoleUnknown is not valid.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleMechanic:
		return true
	default:
		return false
	}
}

// ParseRole normalizes free-form role input into a closed Role value.
// Matching is case-insensitive and tolerates the Portuguese role names the
// original database was seeded with. Anything else parses as RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "administrator", "administrador", "admin":
		return RoleAdministrator
	case "manager", "gerente":
		return RoleManager
	case "mechanic", "mecanico", "mecânico":
		return RoleMechanic
	default:
		return RoleUnknown
	}
}
