package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/httpx"
)

// AdminUsersHandler serves the /api/v1/admin/users endpoints.
type AdminUsersHandler struct {
	AdminService *service.AdminUserService
	RoleService  *service.RoleService
}

type userListResponse struct {
	Users []userResponse `json:"users"`
	Total int            `json:"total"`
}

// HandleList serves GET /api/v1/admin/users with optional q, role, status,
// limit and offset query parameters.
func (h *AdminUsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.UserFilter{
		Query: strings.TrimSpace(q.Get("q")),
	}
	if role := q.Get("role"); role != "" {
		detail, err := h.RoleService.GetRoleByName(r.Context(), role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		filter.RoleID = detail.Role.ID
	}
	if status := q.Get("status"); status != "" {
		s := domain.UserStatus(status)
		if !s.Valid() {
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "status must be active, deactivated or deleted")
			return
		}
		filter.Status = s
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 200 {
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "limit must be between 1 and 200")
			return
		}
		filter.Limit = n
	}
	if offset := q.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	page, err := h.AdminService.ListUsers(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	roleNames := h.roleNames(r)
	resp := userListResponse{Users: make([]userResponse, 0, len(page.Users)), Total: page.Total}
	for _, u := range page.Users {
		resp.Users = append(resp.Users, newUserResponse(u, roleNames[u.RoleID]))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet serves GET /api/v1/admin/users/{id}.
func (h *AdminUsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.AdminService.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(u, h.roleNames(r)[u.RoleID]))
}

// HandleCreate serves POST /api/v1/admin/users.
func (h *AdminUsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string  `json:"email"`
		FullName string  `json:"full_name"`
		Phone    *string `json:"phone"`
		Password string  `json:"password"`
		Role     string  `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validEmail(req.Email) || strings.TrimSpace(req.FullName) == "" || req.Role == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "email, full_name and role are required")
		return
	}
	if !validPassword(req.Password) {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "password must be at least 8 characters")
		return
	}

	u, err := h.AdminService.CreateUser(r.Context(), service.CreateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Password: req.Password,
		RoleName: req.Role,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newUserResponse(u, req.Role))
}

// HandleUpdate serves PUT /api/v1/admin/users/{id}.
func (h *AdminUsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
		Role     *string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.AdminService.UpdateUser(r.Context(), r.PathValue("id"), service.UpdateUserInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		RoleName: req.Role,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(u, h.roleNames(r)[u.RoleID]))
}

// HandleActivate serves PATCH /api/v1/admin/users/{id}/activate.
func (h *AdminUsersHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.ActivateUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeactivate serves PATCH /api/v1/admin/users/{id}/deactivate.
func (h *AdminUsersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeactivateUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete serves DELETE /api/v1/admin/users/{id}.
func (h *AdminUsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminService.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetPassword serves POST /api/v1/admin/users/{id}/reset-password.
func (h *AdminUsersHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validPassword(req.NewPassword) {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "new_password must be at least 8 characters")
		return
	}

	if err := h.AdminService.ResetPassword(r.Context(), r.PathValue("id"), req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// roleNames loads the role id -> name map for response shaping. Lookups on
// a missing id simply render an empty role.
func (h *AdminUsersHandler) roleNames(r *http.Request) map[string]string {
	names := map[string]string{}
	roles, err := h.RoleService.ListRoles(r.Context())
	if err != nil {
		return names
	}
	for _, role := range roles {
		names[role.ID] = role.Name
	}
	return names
}
