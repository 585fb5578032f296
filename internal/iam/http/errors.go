package http

import (
	"errors"
	"net/http"

	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/pkg/httpx"
)

// writeServiceError maps service sentinel errors onto HTTP status codes.
// Anything unmapped is a 500 with an opaque body; internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_credentials", "email or password is incorrect")
	case errors.Is(err, service.ErrAccountDisabled):
		httpx.WriteError(w, http.StatusForbidden,
			"account_disabled", "this account is not active")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_refresh_token", "refresh token is invalid or expired")

	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict,
			"email_taken", "an account with this email already exists")
	case errors.Is(err, service.ErrPhoneTaken):
		httpx.WriteError(w, http.StatusConflict,
			"phone_taken", "an account with this phone number already exists")
	case errors.Is(err, service.ErrDuplicateName):
		httpx.WriteError(w, http.StatusConflict,
			"duplicate_name", "the name is already in use")

	case errors.Is(err, service.ErrPasswordUnchanged):
		httpx.WriteError(w, http.StatusUnprocessableEntity,
			"password_unchanged", "new password must differ from the current password")
	case errors.Is(err, service.ErrPasswordReused):
		httpx.WriteError(w, http.StatusUnprocessableEntity,
			"password_reused", "new password was used recently")

	case errors.Is(err, service.ErrCodeInvalid):
		httpx.WriteError(w, http.StatusBadRequest,
			"reset_code_invalid", "the reset code is not valid for this email")
	case errors.Is(err, service.ErrCodeExpired):
		httpx.WriteError(w, http.StatusGone,
			"reset_code_expired", "the reset code has expired, request a new one")
	case errors.Is(err, service.ErrCodeNotVerified):
		httpx.WriteError(w, http.StatusBadRequest,
			"reset_code_not_verified", "verify the reset code before resetting the password")

	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, service.ErrRoleNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "role not found")
	case errors.Is(err, service.ErrPermissionNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "permission not found")
	case errors.Is(err, service.ErrRoleInUse):
		httpx.WriteError(w, http.StatusConflict,
			"role_in_use", "reassign the role's users before deleting it")

	default:
		httpx.WriteError(w, http.StatusInternalServerError,
			"internal_error", "an unexpected error occurred")
	}
}
