package http

import (
	"net/http"
	"strings"

	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/pkg/httpx"
)

// ProfileHandler serves the self-service endpoints: profile view/edit and
// authenticated password change. The acting identity comes from the request
// context; there is no ambient principal.
type ProfileHandler struct {
	AuthService     *service.AuthService
	PasswordService *service.PasswordService
}

// HandleGet serves GET /api/v1/auth/profile.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	subject := httpx.SubjectFromContext(r.Context())

	u, err := h.AuthService.Profile(r.Context(), subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	claims, _ := httpx.ClaimsFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(u, claims.Role))
}

// HandleUpdate serves PUT /api/v1/auth/profile.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	subject := httpx.SubjectFromContext(r.Context())

	var req struct {
		FullName string  `json:"full_name"`
		Phone    *string `json:"phone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "full_name is required")
		return
	}

	u, err := h.AuthService.UpdateProfile(r.Context(), subject, req.FullName, req.Phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	claims, _ := httpx.ClaimsFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(u, claims.Role))
}

// HandleChangePassword serves POST /api/v1/auth/change-password.
func (h *ProfileHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	subject := httpx.SubjectFromContext(r.Context())

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OldPassword == "" || !validPassword(req.NewPassword) {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "old_password and a new_password of at least 8 characters are required")
		return
	}

	if err := h.PasswordService.ChangePassword(r.Context(), subject, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
