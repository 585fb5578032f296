package service

import (
	"context"
	"testing"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/stretchr/testify/require"
)

func TestAdminUserLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedRole(t, "CUSTOMER", "CREATE_BOOKING")
	env.seedRole(t, "STAFF", "VIEW_VEHICLE")

	created, err := env.Admin.CreateUser(ctx, CreateUserInput{
		Email:    "worker@example.com",
		FullName: "Worker One",
		Password: "initial-pw-1",
		RoleName: "CUSTOMER",
	})
	require.NoError(t, err)
	require.Equal(t, domain.UserStatusActive, created.Status)

	t.Run("create rejects unknown role", func(t *testing.T) {
		_, err := env.Admin.CreateUser(ctx, CreateUserInput{
			Email:    "x@example.com",
			FullName: "X",
			Password: "pw-123456",
			RoleName: "NOPE",
		})
		require.ErrorIs(t, err, ErrRoleNotFound)
	})

	t.Run("role change applies at next exchange, not to issued tokens", func(t *testing.T) {
		pair, err := env.Auth.Authenticate(ctx, "worker@example.com", "initial-pw-1")
		require.NoError(t, err)

		before := env.Auth.Introspect(ctx, pair.AccessToken)
		require.Equal(t, "CUSTOMER", before.Role)

		staff := "STAFF"
		_, err = env.Admin.UpdateUser(ctx, created.ID, UpdateUserInput{RoleName: &staff})
		require.NoError(t, err)

		// The issued access token still carries the old authorities.
		after := env.Auth.Introspect(ctx, pair.AccessToken)
		require.Equal(t, "CUSTOMER", after.Role)

		// The next refresh exchange picks up the new role.
		next, err := env.Auth.ExchangeRefreshToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
		refreshed := env.Auth.Introspect(ctx, next.AccessToken)
		require.Equal(t, "STAFF", refreshed.Role)
		require.Contains(t, refreshed.Authorities, "ROLE_STAFF")
	})

	t.Run("deactivate then activate round-trips", func(t *testing.T) {
		require.NoError(t, env.Admin.DeactivateUser(ctx, created.ID))
		_, err := env.Auth.Authenticate(ctx, "worker@example.com", "initial-pw-1")
		require.ErrorIs(t, err, ErrAccountDisabled)

		require.NoError(t, env.Admin.ActivateUser(ctx, created.ID))
		_, err = env.Auth.Authenticate(ctx, "worker@example.com", "initial-pw-1")
		require.NoError(t, err)
	})

	t.Run("admin reset revokes sessions and sets the new credential", func(t *testing.T) {
		pair, err := env.Auth.Authenticate(ctx, "worker@example.com", "initial-pw-1")
		require.NoError(t, err)

		require.NoError(t, env.Admin.ResetPassword(ctx, created.ID, "forced-pw-2"))

		_, err = env.Auth.ExchangeRefreshToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)

		_, err = env.Auth.Authenticate(ctx, "worker@example.com", "initial-pw-1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = env.Auth.Authenticate(ctx, "worker@example.com", "forced-pw-2")
		require.NoError(t, err)
	})

	t.Run("delete tombstones the account", func(t *testing.T) {
		require.NoError(t, env.Admin.DeleteUser(ctx, created.ID))

		_, err := env.Admin.GetUser(ctx, created.ID)
		require.ErrorIs(t, err, ErrUserNotFound)

		_, err = env.Auth.Authenticate(ctx, "worker@example.com", "forced-pw-2")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		page, err := env.Admin.ListUsers(ctx, store.UserFilter{})
		require.NoError(t, err)
		for _, u := range page.Users {
			require.NotEqual(t, created.ID, u.ID)
		}
	})
}

func TestAdminListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "CUSTOMER")
	env.seedUser(t, "anna@example.com", "pw-anna-1", role.ID)
	env.seedUser(t, "ben@example.com", "pw-ben-11", role.ID)
	deactivated := env.seedUser(t, "cleo@example.com", "pw-cleo-1", role.ID)
	require.NoError(t, env.Admin.DeactivateUser(ctx, deactivated.ID))

	t.Run("search by email substring", func(t *testing.T) {
		page, err := env.Admin.ListUsers(ctx, store.UserFilter{Query: "anna"})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		require.Equal(t, "anna@example.com", page.Users[0].Email)
	})

	t.Run("filter by status", func(t *testing.T) {
		page, err := env.Admin.ListUsers(ctx, store.UserFilter{Status: domain.UserStatusDeactivated})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		require.Equal(t, deactivated.ID, page.Users[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := env.Admin.ListUsers(ctx, store.UserFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page.Users, 2)
		require.Equal(t, 3, page.Total)
	})

	t.Run("filter by role", func(t *testing.T) {
		staff := env.seedRole(t, "STAFF")
		env.seedUser(t, "dana@example.com", "pw-dana-1", staff.ID)

		page, err := env.Admin.ListUsers(ctx, store.UserFilter{RoleID: staff.ID})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		require.Equal(t, "dana@example.com", page.Users[0].Email)
	})
}

func TestRoleAndPermissionManagement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("role create normalizes the name", func(t *testing.T) {
		role, err := env.Roles.CreateRole(ctx, " auditor ", "Read-only access")
		require.NoError(t, err)
		require.Equal(t, "AUDITOR", role.Name)
		require.Equal(t, "ROLE_AUDITOR", role.Authority())
	})

	t.Run("duplicate role name rejected", func(t *testing.T) {
		_, err := env.Roles.CreateRole(ctx, "AUDITOR", "dup")
		require.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("permission attach and detach", func(t *testing.T) {
		role, err := env.Roles.CreateRole(ctx, "REVIEWER", "")
		require.NoError(t, err)

		perm, err := env.Perms.CreatePermission(ctx, "VIEW_REPORTS", "View reports", "VIEW_REPORTS")
		require.NoError(t, err)

		require.NoError(t, env.Roles.AssignPermission(ctx, role.ID, perm.ID))
		// Idempotent: assigning twice is fine.
		require.NoError(t, env.Roles.AssignPermission(ctx, role.ID, perm.ID))

		detail, err := env.Roles.GetRole(ctx, role.ID)
		require.NoError(t, err)
		require.Len(t, detail.Permissions, 1)

		require.NoError(t, env.Roles.RemovePermission(ctx, role.ID, perm.ID))
		detail, err = env.Roles.GetRole(ctx, role.ID)
		require.NoError(t, err)
		require.Empty(t, detail.Permissions)
	})

	t.Run("lookup by name and active listing", func(t *testing.T) {
		detail, err := env.Roles.GetRoleByName(ctx, "auditor")
		require.NoError(t, err)
		require.Equal(t, "AUDITOR", detail.Role.Name)

		_, err = env.Roles.GetRoleByName(ctx, "NO_SUCH_ROLE")
		require.ErrorIs(t, err, ErrRoleNotFound)

		require.NoError(t, env.Roles.DeactivateRole(ctx, detail.Role.ID))
		active, err := env.Roles.ListActiveRoles(ctx)
		require.NoError(t, err)
		for _, role := range active {
			require.NotEqual(t, "AUDITOR", role.Name)
		}

		require.NoError(t, env.Roles.ActivateRole(ctx, detail.Role.ID))
		detail, err = env.Roles.GetRoleByName(ctx, "AUDITOR")
		require.NoError(t, err)
		require.True(t, detail.Role.Active)
	})

	t.Run("role held by a user cannot be deleted", func(t *testing.T) {
		role, err := env.Roles.CreateRole(ctx, "HELD", "")
		require.NoError(t, err)
		env.seedUser(t, "holder@example.com", "pw-holder", role.ID)

		require.ErrorIs(t, env.Roles.DeleteRole(ctx, role.ID), ErrRoleInUse)
	})

	t.Run("deleting a permission shrinks authority sets at next resolution", func(t *testing.T) {
		role := env.seedRole(t, "TEMP", "TEMP_ACTION")
		u := env.seedUser(t, "temp@example.com", "pw-temp-1", role.ID)

		authorities, _, err := ResolveAuthorities(ctx, env.Store, u)
		require.NoError(t, err)
		require.Contains(t, authorities, "TEMP_ACTION")

		perm, err := env.Store.Permissions().GetPermissionByName(ctx, "TEMP_ACTION")
		require.NoError(t, err)
		require.NoError(t, env.Perms.DeletePermission(ctx, perm.ID))

		authorities, _, err = ResolveAuthorities(ctx, env.Store, u)
		require.NoError(t, err)
		require.NotContains(t, authorities, "TEMP_ACTION")
	})
}

func TestSeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, env.Store, "admin-pw-1"))

	t.Run("admin can authenticate with the full catalog", func(t *testing.T) {
		pair, err := env.Auth.Authenticate(ctx, SeedAdminEmail, "admin-pw-1")
		require.NoError(t, err)

		intro := env.Auth.Introspect(ctx, pair.AccessToken)
		require.Equal(t, "ADMIN", intro.Role)
		require.Contains(t, intro.Authorities, "MANAGE_USERS")
		require.Contains(t, intro.Authorities, "ROLE_ADMIN")
	})

	t.Run("seeding is idempotent", func(t *testing.T) {
		require.NoError(t, Seed(ctx, env.Store, "other-pw"))

		roles, err := env.Roles.ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 4)
	})
}
