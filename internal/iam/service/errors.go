package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrAccountDisabled    = errors.New("account_disabled")

	ErrEmailTaken = errors.New("email_taken")
	ErrPhoneTaken = errors.New("phone_taken")

	ErrPasswordUnchanged = errors.New("password_unchanged")
	ErrPasswordReused    = errors.New("password_reused")

	ErrCodeInvalid     = errors.New("reset_code_invalid")
	ErrCodeExpired     = errors.New("reset_code_expired")
	ErrCodeNotVerified = errors.New("reset_code_not_verified")

	ErrUserNotFound       = errors.New("user_not_found")
	ErrRoleNotFound       = errors.New("role_not_found")
	ErrPermissionNotFound = errors.New("permission_not_found")
	ErrRoleInUse          = errors.New("role_in_use")
	ErrDuplicateName      = errors.New("duplicate_name")
)
