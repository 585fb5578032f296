package service

import (
	"context"
	"errors"
	"strings"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/idx"
)

// PermissionService manages the permission catalog.
type PermissionService struct {
	Store store.Store
}

func (s *PermissionService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	return s.Store.Permissions().ListAll(ctx)
}

func (s *PermissionService) GetPermission(ctx context.Context, id string) (domain.Permission, error) {
	p, err := s.Store.Permissions().GetPermissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Permission{}, ErrPermissionNotFound
		}
		return domain.Permission{}, err
	}
	return p, nil
}

func (s *PermissionService) CreatePermission(ctx context.Context, name, description, action string) (domain.Permission, error) {
	p := domain.Permission{
		ID:          idx.New().String(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Action:      strings.TrimSpace(action),
	}

	if err := s.Store.Permissions().CreatePermission(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Permission{}, ErrDuplicateName
		}
		return domain.Permission{}, err
	}
	return p, nil
}

func (s *PermissionService) UpdatePermission(ctx context.Context, id string, name, description, action *string) (domain.Permission, error) {
	p, err := s.GetPermission(ctx, id)
	if err != nil {
		return domain.Permission{}, err
	}

	if name != nil {
		p.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		p.Description = *description
	}
	if action != nil {
		p.Action = strings.TrimSpace(*action)
	}

	if err := s.Store.Permissions().UpdatePermission(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Permission{}, ErrDuplicateName
		}
		return domain.Permission{}, err
	}
	return p, nil
}

// DeletePermission removes a permission; role attachments cascade away with
// it, shrinking those roles' authority sets at the next resolution.
func (s *PermissionService) DeletePermission(ctx context.Context, id string) error {
	err := s.Store.Permissions().DeletePermission(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPermissionNotFound
	}
	return err
}
