// Package policy maps a profile role onto its capability set over the
// student collection. It is pure: no I/O, no state. Every mutating
// entry point consults it before touching the network so a denied
// attempt fails fast instead of failing remote.
package policy

import "github.com/tasjeel-app/tasjeel/internal/models"

// Capability is one of the gated actions over the student collection.
type Capability string

const (
	CapCreate Capability = "create"
	CapUpdate Capability = "update"
	CapDelete Capability = "delete"
)

// IsAdmin reports whether the role carries admin rights.
func IsAdmin(role models.Role) bool {
	return role == models.RoleAdmin
}

// IsTeacher reports whether the role carries teacher rights. Admin is a
// strict superset of teacher.
func IsTeacher(role models.Role) bool {
	return role == models.RoleTeacher || IsAdmin(role)
}

// Can reports whether the role holds the capability. Delete is strictly
// narrower than create/update: teachers may register and edit but not
// remove records.
func Can(role models.Role, cap Capability) bool {
	switch cap {
	case CapCreate, CapUpdate:
		return IsTeacher(role)
	case CapDelete:
		return IsAdmin(role)
	}
	return false
}

// Capabilities returns the full capability set for a role.
func Capabilities(role models.Role) []Capability {
	caps := make([]Capability, 0, 3)
	for _, c := range []Capability{CapCreate, CapUpdate, CapDelete} {
		if Can(role, c) {
			caps = append(caps, c)
		}
	}
	return caps
}
