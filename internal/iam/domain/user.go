package domain

import "time"

// UserStatus is the lifecycle state of an account. Deactivated accounts are
// blocked from authenticating but keep their data; deleted accounts are
// tombstoned and excluded from lookups and listings.
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
	UserStatusDeleted     UserStatus = "deleted"
)

// Valid reports whether s is one of the known lifecycle states.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusDeactivated, UserStatusDeleted:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string // unique, case-insensitive
	FullName     string
	Phone        *string // unique when present (nullable)
	PasswordHash string  // argon2 encoded
	RoleID       string  // Foreign key to roles table
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAuthenticate reports whether this account may complete a credential
// or refresh exchange.
func (u *User) CanAuthenticate() bool {
	return u.Status == UserStatusActive
}
