package http

import (
	"net/http"

	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/pkg/httpx"
)

// PasswordResetHandler serves the unauthenticated recovery flow:
// forgot-password, verify-reset-code, reset-password.
type PasswordResetHandler struct {
	PasswordService *service.PasswordService
}

// HandleForgot serves POST /api/v1/auth/forgot-password.
func (h *PasswordResetHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validEmail(req.Email) {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "a valid email is required")
		return
	}

	if err := h.PasswordService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "a reset code has been sent to your email",
	})
}

// HandleVerify serves POST /api/v1/auth/verify-reset-code.
func (h *PasswordResetHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "email and code are required")
		return
	}

	if err := h.PasswordService.VerifyResetCode(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "code verified",
	})
}

// HandleReset serves POST /api/v1/auth/reset-password.
func (h *PasswordResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "email and code are required")
		return
	}
	if !validPassword(req.NewPassword) {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "new_password must be at least 8 characters")
		return
	}

	if err := h.PasswordService.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "password has been reset",
	})
}
