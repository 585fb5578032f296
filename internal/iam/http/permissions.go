package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/pkg/httpx"
)

// PermissionsHandler serves the /api/v1/permissions endpoints.
type PermissionsHandler struct {
	PermissionService *service.PermissionService
}

type permissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Action      string `json:"action"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func newPermissionResponse(p domain.Permission) permissionResponse {
	return permissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Action:      p.Action,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// HandleList serves GET /api/v1/permissions.
func (h *PermissionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	perms, err := h.PermissionService.ListPermissions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		resp = append(resp, newPermissionResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet serves GET /api/v1/permissions/{id}.
func (h *PermissionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.PermissionService.GetPermission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newPermissionResponse(p))
}

// HandleCreate serves POST /api/v1/permissions.
func (h *PermissionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Action      string `json:"action"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Action) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name and action are required")
		return
	}

	p, err := h.PermissionService.CreatePermission(r.Context(), req.Name, req.Description, req.Action)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newPermissionResponse(p))
}

// HandleUpdate serves PUT /api/v1/permissions/{id}. Absent fields are left
// untouched.
func (h *PermissionsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Action      *string `json:"action"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.PermissionService.UpdatePermission(r.Context(), r.PathValue("id"), req.Name, req.Description, req.Action)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newPermissionResponse(p))
}

// HandleDelete serves DELETE /api/v1/permissions/{id}. Deleting a
// permission detaches it from every role that carried it.
func (h *PermissionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.PermissionService.DeletePermission(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
