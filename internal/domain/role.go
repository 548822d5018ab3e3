package domain

import "sort"

// Role enumerates the roles a caller can hold.
type Role string

const (
	RoleEmployee     Role = "EMPLOYEE"
	RoleSupportAgent Role = "SUPPORT_AGENT"
	RoleManager      Role = "MANAGER"
)

// Valid reports whether the role belongs to the catalog.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSupportAgent, RoleManager:
		return true
	}
	return false
}

// RoleSet is the set of roles held by one user.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set, ignoring roles outside the catalog.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		if role.Valid() {
			set[role] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set contains role.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// IsStaff is true for support agents and managers.
func (s RoleSet) IsStaff() bool {
	return s.Has(RoleSupportAgent) || s.Has(RoleManager)
}

// IsManager is true when the set grants administrative overrides.
func (s RoleSet) IsManager() bool {
	return s.Has(RoleManager)
}

// Slice returns the roles in a stable order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for role := range s {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Caller identifies who is performing an operation.
type Caller struct {
	ID    string
	Roles RoleSet
}

// IsStaff reports whether the caller is IT staff.
func (c Caller) IsStaff() bool {
	return c.Roles.IsStaff()
}
