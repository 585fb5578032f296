package service

import (
	"context"
	"testing"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "CUSTOMER", "CREATE_BOOKING", "VIEW_VEHICLE")
	env.seedUser(t, "alice@example.com", "s3cret-pw", role.ID)

	t.Run("success issues token pair with resolved authorities", func(t *testing.T) {
		pair, err := env.Auth.Authenticate(ctx, "alice@example.com", "s3cret-pw")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.Equal(t, "Bearer", pair.TokenType)

		intro := env.Auth.Introspect(ctx, pair.AccessToken)
		require.True(t, intro.Active)
		require.Equal(t, "alice@example.com", intro.Subject)
		require.Equal(t, "CUSTOMER", intro.Role)
		require.ElementsMatch(t,
			[]string{"CREATE_BOOKING", "VIEW_VEHICLE", "ROLE_CUSTOMER"},
			intro.Authorities,
		)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, err := env.Auth.Authenticate(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err2 := env.Auth.Authenticate(ctx, "nobody@example.com", "s3cret-pw")
		require.ErrorIs(t, err2, ErrInvalidCredentials)
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		_, err := env.Auth.Authenticate(ctx, "ALICE@Example.COM", "s3cret-pw")
		require.NoError(t, err)
	})

	t.Run("deactivated account cannot authenticate", func(t *testing.T) {
		u := env.seedUser(t, "bob@example.com", "s3cret-pw", role.ID)
		require.NoError(t, env.Admin.DeactivateUser(ctx, u.ID))

		_, err := env.Auth.Authenticate(ctx, "bob@example.com", "s3cret-pw")
		require.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestExchangeRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "STAFF", "VIEW_VEHICLE")
	u := env.seedUser(t, "staff@example.com", "s3cret-pw", role.ID)

	pair, err := env.Auth.Authenticate(ctx, "staff@example.com", "s3cret-pw")
	require.NoError(t, err)

	t.Run("returns the same refresh token", func(t *testing.T) {
		next, err := env.Auth.ExchangeRefreshToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, pair.RefreshToken, next.RefreshToken)
		require.NotEmpty(t, next.AccessToken)

		// The session stays valid for further exchanges.
		_, err = env.Auth.ExchangeRefreshToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("authorities are recomputed at exchange time", func(t *testing.T) {
		perm := domain.Permission{ID: "perm-trip", Name: "VIEW_TRIP_DETAILS", Action: "VIEW_TRIP_DETAILS"}
		require.NoError(t, env.Store.Permissions().CreatePermission(ctx, perm))
		require.NoError(t, env.Store.Roles().AddPermission(ctx, role.ID, perm.ID))

		next, err := env.Auth.ExchangeRefreshToken(ctx, pair.RefreshToken)
		require.NoError(t, err)

		intro := env.Auth.Introspect(ctx, next.AccessToken)
		require.Contains(t, intro.Authorities, "VIEW_TRIP_DETAILS")
	})

	t.Run("revoked session fails", func(t *testing.T) {
		require.NoError(t, env.Auth.Logout(ctx, pair.RefreshToken))

		_, err := env.Auth.ExchangeRefreshToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		require.NoError(t, env.Auth.Logout(ctx, pair.RefreshToken))
	})

	t.Run("garbage token fails", func(t *testing.T) {
		_, err := env.Auth.ExchangeRefreshToken(ctx, "not-a-real-token")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("deactivation blocks outstanding sessions", func(t *testing.T) {
		fresh, err := env.Auth.Authenticate(ctx, "staff@example.com", "s3cret-pw")
		require.NoError(t, err)

		require.NoError(t, env.Admin.DeactivateUser(ctx, u.ID))
		_, err = env.Auth.ExchangeRefreshToken(ctx, fresh.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestIntrospect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("garbage is inactive, never an error", func(t *testing.T) {
		intro := env.Auth.Introspect(ctx, "garbage.token.here")
		require.False(t, intro.Active)
		require.Empty(t, intro.Subject)
		require.Empty(t, intro.Authorities)
	})

	t.Run("empty token is inactive", func(t *testing.T) {
		intro := env.Auth.Introspect(ctx, "")
		require.False(t, intro.Active)
	})
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedRole(t, DefaultRoleName, "CREATE_BOOKING")

	t.Run("creates active account with default role", func(t *testing.T) {
		u, err := env.Auth.Register(ctx, RegisterInput{
			Email:    "new@example.com",
			FullName: "New User",
			Password: "fresh-pw-1",
		})
		require.NoError(t, err)
		require.Equal(t, domain.UserStatusActive, u.Status)

		pair, err := env.Auth.Authenticate(ctx, "new@example.com", "fresh-pw-1")
		require.NoError(t, err)

		intro := env.Auth.Introspect(ctx, pair.AccessToken)
		require.Equal(t, DefaultRoleName, intro.Role)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := env.Auth.Register(ctx, RegisterInput{
			Email:    "new@example.com",
			FullName: "Other",
			Password: "other-pw-1",
		})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("duplicate email rejected case-insensitively", func(t *testing.T) {
		_, err := env.Auth.Register(ctx, RegisterInput{
			Email:    "NEW@EXAMPLE.COM",
			FullName: "Other",
			Password: "other-pw-1",
		})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("duplicate phone rejected", func(t *testing.T) {
		phone := "+61400000001"
		_, err := env.Auth.Register(ctx, RegisterInput{
			Email:    "p1@example.com",
			FullName: "P One",
			Phone:    &phone,
			Password: "phone-pw-1",
		})
		require.NoError(t, err)

		_, err = env.Auth.Register(ctx, RegisterInput{
			Email:    "p2@example.com",
			FullName: "P Two",
			Phone:    &phone,
			Password: "phone-pw-2",
		})
		require.ErrorIs(t, err, ErrPhoneTaken)
	})
}

func TestResolveAuthorities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "DRIVER", "VIEW_TRIP_DETAILS", "REPORT_CAR_ISSUE")
	u := env.seedUser(t, "driver@example.com", "pw-driver-1", role.ID)

	t.Run("union of actions plus role marker", func(t *testing.T) {
		authorities, got, err := ResolveAuthorities(ctx, env.Store, u)
		require.NoError(t, err)
		require.Equal(t, role.ID, got.ID)
		require.ElementsMatch(t,
			[]string{"VIEW_TRIP_DETAILS", "REPORT_CAR_ISSUE", "ROLE_DRIVER"},
			authorities,
		)
	})

	t.Run("inactive role keeps only its marker", func(t *testing.T) {
		role.Active = false
		require.NoError(t, env.Store.Roles().UpdateRole(ctx, role))

		authorities, _, err := ResolveAuthorities(ctx, env.Store, u)
		require.NoError(t, err)
		require.Equal(t, []string{"ROLE_DRIVER"}, authorities)
	})
}
