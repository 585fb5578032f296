package store

import (
	"context"
	"errors"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a WithTx helper for the multi-step operations that must be
// atomic (password change, reset-code consumption, admin resets).
type Store interface {
	Users() Users
	Roles() Roles
	Permissions() Permissions
	RefreshTokens() RefreshTokens
	PasswordHistory() PasswordHistory
	ResetTokens() ResetTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// UserFilter narrows admin listing/search queries. Zero value matches all
// non-deleted users.
type UserFilter struct {
	// Query matches email, full name or phone, case-insensitive substring.
	Query string
	// RoleID narrows to holders of a single role when non-empty.
	RoleID string
	// Status narrows to a single lifecycle state when non-empty.
	Status domain.UserStatus
	// Limit/Offset paginate. Limit <= 0 means the driver default.
	Limit  int
	Offset int
}

type Users interface {
	// GetUserByID returns a user by id. Deleted users are not returned.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by email, case-insensitive.
	// Deleted users are not returned.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email or phone is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile mutates full_name and phone and bumps updated_at.
	UpdateProfile(ctx context.Context, userID string, fullName string, phone *string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateRole reassigns the user's role and bumps updated_at.
	UpdateRole(ctx context.Context, userID string, roleID string) error

	// UpdateStatus moves the user between lifecycle states.
	UpdateStatus(ctx context.Context, userID string, status domain.UserStatus) error

	// ListUsers returns users matching the filter, newest first.
	ListUsers(ctx context.Context, f UserFilter) ([]domain.User, error)

	// CountUsers returns the number of users matching the filter.
	CountUsers(ctx context.Context, f UserFilter) (int, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetRoleByID fetches a role by its ID.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName fetches a role by its name (for seeding and assignment).
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListAll returns all roles in the system.
	ListAll(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a new role (id is ULID).
	CreateRole(ctx context.Context, r domain.Role) error

	// UpdateRole modifies name, description and active flag.
	UpdateRole(ctx context.Context, r domain.Role) error

	// DeleteRole removes a role. Fails if users still reference it.
	DeleteRole(ctx context.Context, roleID string) error

	// AddPermission attaches a permission to a role. Idempotent.
	AddPermission(ctx context.Context, roleID, permissionID string) error

	// RemovePermission detaches a permission from a role.
	RemovePermission(ctx context.Context, roleID, permissionID string) error

	// ListPermissions returns the permissions attached to a role.
	ListPermissions(ctx context.Context, roleID string) ([]domain.Permission, error)

	// IsEmpty returns true if there are no roles.
	IsEmpty(ctx context.Context) (bool, error)
}

type Permissions interface {
	// GetPermissionByID fetches a permission by its ID.
	GetPermissionByID(ctx context.Context, id string) (domain.Permission, error)

	// GetPermissionByName fetches a permission by its unique name.
	GetPermissionByName(ctx context.Context, name string) (domain.Permission, error)

	// ListAll returns all permissions in the system.
	ListAll(ctx context.Context) ([]domain.Permission, error)

	// CreatePermission inserts a new permission (id is ULID).
	CreatePermission(ctx context.Context, p domain.Permission) error

	// UpdatePermission modifies name, description and action.
	UpdatePermission(ctx context.Context, p domain.Permission) error

	// DeletePermission removes a permission and its role attachments.
	DeletePermission(ctx context.Context, permissionID string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh session record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the session by the token's fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshTokenByHash removes a single session (logout).
	DeleteRefreshTokenByHash(ctx context.Context, hash string) error

	// DeleteAllUserRefreshTokens removes every session for a user
	// (password change, admin reset, deactivation).
	DeleteAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type PasswordHistory interface {
	// AppendHistory records a hash the user is moving away from.
	AppendHistory(ctx context.Context, e domain.PasswordHistoryEntry) error

	// ListRecentHistory returns the newest n entries for a user,
	// most recent first.
	ListRecentHistory(ctx context.Context, userID string, n int) ([]domain.PasswordHistoryEntry, error)
}

type ResetTokens interface {
	// CreateResetToken stores a freshly minted recovery code.
	CreateResetToken(ctx context.Context, t domain.PasswordResetToken) error

	// GetActiveResetToken returns the unused token matching email+code exactly.
	// Expiry is NOT checked here; callers decide how to report stale codes.
	GetActiveResetToken(ctx context.Context, email, code string) (domain.PasswordResetToken, error)

	// MarkResetTokenVerified flips verified=1 after a successful code check.
	MarkResetTokenVerified(ctx context.Context, id string) error

	// ConsumeResetToken marks the token used. Guarded so a token can be
	// consumed exactly once: returns ErrNotFound when it was already used.
	ConsumeResetToken(ctx context.Context, id string) error

	// DeleteUnusedResetTokens purges outstanding unused codes for an email
	// before minting a new one.
	DeleteUnusedResetTokens(ctx context.Context, email string) error

	// DeleteExpiredResetTokens is housekeeping.
	DeleteExpiredResetTokens(ctx context.Context) error
}
