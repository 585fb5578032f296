package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
	"github.com/laptruong-hub/iam-service/pkg/idx"
	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

// AdminUserService covers the administrative account operations: listing,
// search, creation with an explicit role, lifecycle transitions and forced
// password resets.
type AdminUserService struct {
	Store    store.Store
	Sessions *SessionService
	Notifier *Notifier
}

// UserPage is a page of accounts plus the total match count.
type UserPage struct {
	Users []domain.User
	Total int
}

// ListUsers returns accounts matching the filter, newest first.
func (s *AdminUserService) ListUsers(ctx context.Context, f store.UserFilter) (UserPage, error) {
	users, err := s.Store.Users().ListUsers(ctx, f)
	if err != nil {
		return UserPage{}, err
	}
	total, err := s.Store.Users().CountUsers(ctx, f)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, Total: total}, nil
}

// GetUser fetches a single account by id.
func (s *AdminUserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// CreateUserInput carries an admin user creation request.
type CreateUserInput struct {
	Email    string
	FullName string
	Phone    *string
	Password string
	RoleName string
}

// CreateUser provisions an account with an explicit role and queues a
// welcome email.
func (s *AdminUserService) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	l := slogx.FromContext(ctx)
	in.Email = strings.TrimSpace(in.Email)

	role, err := s.Store.Roles().GetRoleByName(ctx, in.RoleName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrRoleNotFound
		}
		return domain.User{}, err
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        in.Email,
		FullName:     in.FullName,
		Phone:        in.Phone,
		PasswordHash: hash,
		RoleID:       role.ID,
		Status:       domain.UserStatusActive,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrPhoneTaken
		}
		return domain.User{}, err
	}

	l.Info("user created by admin", slog.String("user_id", u.ID), slog.String("role", role.Name))
	s.Notifier.SubmitWelcome(u.Email, u.FullName)

	return u, nil
}

// UpdateUserInput carries an admin profile/role edit. Nil fields are left
// untouched.
type UpdateUserInput struct {
	FullName *string
	Phone    *string
	RoleName *string
}

// UpdateUser edits an account's profile fields and, optionally, its role.
// A role change takes effect at the user's next login or refresh exchange;
// access tokens already in the wild keep their embedded authorities until
// they expire.
func (s *AdminUserService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (domain.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	fullName := u.FullName
	if in.FullName != nil {
		fullName = *in.FullName
	}
	phone := u.Phone
	if in.Phone != nil {
		phone = in.Phone
	}

	if err := s.Store.Users().UpdateProfile(ctx, u.ID, fullName, phone); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrPhoneTaken
		}
		return domain.User{}, err
	}

	if in.RoleName != nil {
		role, err := s.Store.Roles().GetRoleByName(ctx, *in.RoleName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.User{}, ErrRoleNotFound
			}
			return domain.User{}, err
		}
		if err := s.Store.Users().UpdateRole(ctx, u.ID, role.ID); err != nil {
			return domain.User{}, err
		}
	}

	return s.GetUser(ctx, id)
}

// ActivateUser returns a deactivated account to service.
func (s *AdminUserService) ActivateUser(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, domain.UserStatusActive)
}

// DeactivateUser blocks an account from authenticating and revokes its
// refresh sessions so the block takes effect at the next token exchange.
func (s *AdminUserService) DeactivateUser(ctx context.Context, id string) error {
	if err := s.setStatus(ctx, id, domain.UserStatusDeactivated); err != nil {
		return err
	}
	return s.Sessions.RevokeAll(ctx, id)
}

// DeleteUser tombstones an account. The row is kept for referential
// integrity but disappears from lookups and listings.
func (s *AdminUserService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if err := s.setStatus(ctx, id, domain.UserStatusDeleted); err != nil {
		return err
	}
	return s.Sessions.RevokeAll(ctx, id)
}

// ResetPassword forces a new credential onto an account without the old
// password: history append, overwrite, session revocation, atomically. The
// reuse window is not enforced here; the admin's word is final.
func (s *AdminUserService) ResetPassword(ctx context.Context, id, newPassword string) error {
	l := slogx.FromContext(ctx)

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return applyNewPassword(ctx, tx, u, newPassword)
	})
	if err != nil {
		return err
	}

	l.Info("password reset by admin", slog.String("user_id", u.ID))
	return nil
}

func (s *AdminUserService) setStatus(ctx context.Context, id string, status domain.UserStatus) error {
	err := s.Store.Users().UpdateStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
