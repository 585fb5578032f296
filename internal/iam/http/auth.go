package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/pkg/httpx"
	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

// tokenResponse is the body returned by login and refresh.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

func newTokenResponse(pair *domain.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int64(pair.ExpiresIn / time.Second),
	}
}

// userResponse is the public view of an account. The password hash never
// leaves the service.
type userResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role,omitempty"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func newUserResponse(u domain.User, roleName string) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      roleName,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// AuthHandler serves the /api/v1/auth endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleLogin serves POST /api/v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "email and password are required")
		return
	}

	pair, err := h.AuthService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(pair))
}

// HandleRegister serves POST /api/v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string  `json:"email"`
		FullName string  `json:"full_name"`
		Phone    *string `json:"phone"`
		Password string  `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validEmail(req.Email) {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "a valid email is required")
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "full_name is required")
		return
	}
	if !validPassword(req.Password) {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "password must be at least 8 characters")
		return
	}

	u, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newUserResponse(*u, service.DefaultRoleName))
}

// HandleRefresh serves POST /api/v1/auth/refresh-token.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.AuthService.ExchangeRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(pair))
}

// HandleLogout serves POST /api/v1/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "refresh_token is required")
		return
	}

	if err := h.AuthService.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleIntrospect serves POST /api/v1/auth/introspect. Inactive tokens are
// reported as {"active": false}, never as an error.
func (h *AuthHandler) HandleIntrospect(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "token is required")
		return
	}

	result := h.AuthService.Introspect(r.Context(), req.Token)
	if !result.Active {
		log.Debug("introspected token is inactive")
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, result)
}
