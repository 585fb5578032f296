package service

import (
	"context"
	"errors"
	"strings"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/idx"
)

// RoleService manages roles and their permission attachments. Edits here
// change what future authority resolutions produce; tokens already issued
// keep their embedded authorities until expiry.
type RoleService struct {
	Store store.Store
}

// RoleDetail is a role plus its attached permissions.
type RoleDetail struct {
	Role        domain.Role
	Permissions []domain.Permission
}

func (s *RoleService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}

// ListActiveRoles returns only roles whose permissions currently count
// toward authority resolution.
func (s *RoleService) ListActiveRoles(ctx context.Context) ([]domain.Role, error) {
	all, err := s.Store.Roles().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, role := range all {
		if role.Active {
			active = append(active, role)
		}
	}
	return active, nil
}

// GetRoleByName resolves a role by its normalized name.
func (s *RoleService) GetRoleByName(ctx context.Context, name string) (RoleDetail, error) {
	role, err := s.Store.Roles().GetRoleByName(ctx, normalizeRoleName(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RoleDetail{}, ErrRoleNotFound
		}
		return RoleDetail{}, err
	}

	perms, err := s.Store.Roles().ListPermissions(ctx, role.ID)
	if err != nil {
		return RoleDetail{}, err
	}
	return RoleDetail{Role: role, Permissions: perms}, nil
}

func (s *RoleService) GetRole(ctx context.Context, id string) (RoleDetail, error) {
	role, err := s.Store.Roles().GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RoleDetail{}, ErrRoleNotFound
		}
		return RoleDetail{}, err
	}

	perms, err := s.Store.Roles().ListPermissions(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}

	return RoleDetail{Role: role, Permissions: perms}, nil
}

// CreateRole adds a role. Names are stored uppercase so the ROLE_ authority
// markers stay predictable.
func (s *RoleService) CreateRole(ctx context.Context, name, description string) (domain.Role, error) {
	role := domain.Role{
		ID:          idx.New().String(),
		Name:        normalizeRoleName(name),
		Description: description,
		Active:      true,
	}

	if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, ErrDuplicateName
		}
		return domain.Role{}, err
	}
	return role, nil
}

// UpdateRole edits a role's name, description or active flag.
func (s *RoleService) UpdateRole(ctx context.Context, id string, name, description *string, active *bool) (domain.Role, error) {
	role, err := s.Store.Roles().GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Role{}, ErrRoleNotFound
		}
		return domain.Role{}, err
	}

	if name != nil {
		role.Name = normalizeRoleName(*name)
	}
	if description != nil {
		role.Description = *description
	}
	if active != nil {
		role.Active = *active
	}

	if err := s.Store.Roles().UpdateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, ErrDuplicateName
		}
		return domain.Role{}, err
	}
	return role, nil
}

// ActivateRole re-enables a role's permission contributions.
func (s *RoleService) ActivateRole(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

// DeactivateRole stops a role from contributing permission actions. Holders
// keep the ROLE_ marker; the role's actions drop out of the next resolution.
func (s *RoleService) DeactivateRole(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

func (s *RoleService) setActive(ctx context.Context, id string, active bool) error {
	role, err := s.Store.Roles().GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	if role.Active == active {
		return nil
	}
	role.Active = active
	return s.Store.Roles().UpdateRole(ctx, role)
}

// DeleteRole removes a role. Fails with ErrRoleInUse while any user still
// holds it: accounts must be reassigned first.
func (s *RoleService) DeleteRole(ctx context.Context, id string) error {
	err := s.Store.Roles().DeleteRole(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrRoleNotFound
	default:
		// The users.role_id FK has no cascade, so a referenced role fails
		// the delete with a constraint error.
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return ErrRoleInUse
		}
		return err
	}
}

// AssignPermission attaches a permission to a role. Idempotent.
func (s *RoleService) AssignPermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	if _, err := s.Store.Permissions().GetPermissionByID(ctx, permissionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPermissionNotFound
		}
		return err
	}
	return s.Store.Roles().AddPermission(ctx, roleID, permissionID)
}

// RemovePermission detaches a permission from a role.
func (s *RoleService) RemovePermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	return s.Store.Roles().RemovePermission(ctx, roleID, permissionID)
}

func normalizeRoleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
