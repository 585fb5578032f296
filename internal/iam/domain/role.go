package domain

import "time"

// RolePrefix is prepended to a role name to form its authority string,
// e.g. role "ADMIN" contributes the authority "ROLE_ADMIN".
const RolePrefix = "ROLE_"

type Role struct {
	ID          string
	Name        string // e.g. "ADMIN", "USER"
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Authority returns the role-marker authority string for this role.
func (r *Role) Authority() string {
	return RolePrefix + r.Name
}

// Permission is a named capability. Its Action string is the authority
// granted to holders of any role the permission is attached to.
type Permission struct {
	ID          string
	Name        string
	Description string
	Action      string // e.g. "user:read"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
