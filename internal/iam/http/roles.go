package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/pkg/httpx"
)

// RolesHandler serves the /api/v1/roles endpoints.
type RolesHandler struct {
	RoleService *service.RoleService
}

type roleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Active      bool                 `json:"active"`
	Permissions []permissionResponse `json:"permissions,omitempty"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

func newRoleResponse(role domain.Role, perms []domain.Permission) roleResponse {
	resp := roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Active:      role.Active,
		CreatedAt:   role.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   role.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, p := range perms {
		resp.Permissions = append(resp.Permissions, newPermissionResponse(p))
	}
	return resp
}

// HandleList serves GET /api/v1/roles.
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RoleService.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		resp = append(resp, newRoleResponse(role, nil))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleListActive serves GET /api/v1/roles/active.
func (h *RolesHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RoleService.ListActiveRoles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		resp = append(resp, newRoleResponse(role, nil))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet serves GET /api/v1/roles/{id}, including attached permissions.
func (h *RolesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.RoleService.GetRole(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newRoleResponse(detail.Role, detail.Permissions))
}

// HandleGetByName serves GET /api/v1/roles/name/{name}.
func (h *RolesHandler) HandleGetByName(w http.ResponseWriter, r *http.Request) {
	detail, err := h.RoleService.GetRoleByName(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newRoleResponse(detail.Role, detail.Permissions))
}

// HandleCreate serves POST /api/v1/roles.
func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	role, err := h.RoleService.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newRoleResponse(role, nil))
}

// HandleUpdate serves PUT /api/v1/roles/{id}. Absent fields are left
// untouched.
func (h *RolesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Active      *bool   `json:"active"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := h.RoleService.UpdateRole(r.Context(), r.PathValue("id"), req.Name, req.Description, req.Active)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newRoleResponse(role, nil))
}

// HandleDelete serves DELETE /api/v1/roles/{id}.
func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.RoleService.DeleteRole(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleActivate serves PATCH /api/v1/roles/{id}/activate.
func (h *RolesHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	if err := h.RoleService.ActivateRole(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeactivate serves PATCH /api/v1/roles/{id}/deactivate.
func (h *RolesHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.RoleService.DeactivateRole(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignPermission serves POST /api/v1/roles/{id}/permissions/{permissionID}.
func (h *RolesHandler) HandleAssignPermission(w http.ResponseWriter, r *http.Request) {
	err := h.RoleService.AssignPermission(r.Context(), r.PathValue("id"), r.PathValue("permissionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemovePermission serves DELETE /api/v1/roles/{id}/permissions/{permissionID}.
func (h *RolesHandler) HandleRemovePermission(w http.ResponseWriter, r *http.Request) {
	err := h.RoleService.RemovePermission(r.Context(), r.PathValue("id"), r.PathValue("permissionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
