package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/laptruong-hub/iam-service/internal/iam/store/drivers/sqlite"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
)

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "CUSTOMER")
	env.seedUser(t, "carol@example.com", "password-0", role.ID)

	t.Run("requires the current password", func(t *testing.T) {
		err := env.Password.ChangePassword(ctx, "carol@example.com", "wrong", "password-1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects an unchanged password", func(t *testing.T) {
		err := env.Password.ChangePassword(ctx, "carol@example.com", "password-0", "password-0")
		require.ErrorIs(t, err, ErrPasswordUnchanged)
	})

	t.Run("revokes every session on success", func(t *testing.T) {
		pair, err := env.Auth.Authenticate(ctx, "carol@example.com", "password-0")
		require.NoError(t, err)

		require.NoError(t, env.Password.ChangePassword(ctx, "carol@example.com", "password-0", "password-1"))

		_, err = env.Auth.ExchangeRefreshToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)

		_, err = env.Auth.Authenticate(ctx, "carol@example.com", "password-1")
		require.NoError(t, err)
	})
}

// The reuse window covers the current password plus the last three retired
// hashes. A password four changes back becomes legal again.
func TestChangePasswordReuseWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "CUSTOMER")
	env.seedUser(t, "dave@example.com", "password-0", role.ID)

	// password-0 -> password-1 -> password-2 -> password-3
	require.NoError(t, env.Password.ChangePassword(ctx, "dave@example.com", "password-0", "password-1"))
	require.NoError(t, env.Password.ChangePassword(ctx, "dave@example.com", "password-1", "password-2"))
	require.NoError(t, env.Password.ChangePassword(ctx, "dave@example.com", "password-2", "password-3"))

	// All three retired hashes are still in the window.
	for _, old := range []string{"password-0", "password-1", "password-2"} {
		err := env.Password.ChangePassword(ctx, "dave@example.com", "password-3", old)
		require.ErrorIs(t, err, ErrPasswordReused, "expected %q to be rejected", old)
	}

	// One more change shifts the window: password-0 drops out.
	require.NoError(t, env.Password.ChangePassword(ctx, "dave@example.com", "password-3", "password-4"))
	require.NoError(t, env.Password.ChangePassword(ctx, "dave@example.com", "password-4", "password-0"))
}

// Two clients race to change the same account's password from the same
// starting credential. The whole change runs in one transaction, so exactly
// one wins: the loser sees the winner's hash and fails the old-password
// check instead of committing against a stale snapshot. A file-backed store
// is used here so both goroutines share one database.
func TestChangePasswordConcurrent(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", filepath.Join(t.TempDir(), "iam.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	env := &testEnv{Store: st}
	role := env.seedRole(t, "CUSTOMER")
	u := env.seedUser(t, "heidi@example.com", "password-0", role.ID)

	svc := &PasswordService{Store: st}
	ctx := context.Background()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, next := range []string{"password-1", "password-2"} {
		wg.Add(1)
		go func(next string) {
			defer wg.Done()
			errs <- svc.ChangePassword(ctx, "heidi@example.com", "password-0", next)
		}(next)
	}
	wg.Wait()
	close(errs)

	won := 0
	for err := range errs {
		if err == nil {
			won++
		}
	}
	require.Equal(t, 1, won, "exactly one concurrent change should win")

	final, err := st.Users().GetUserByEmail(ctx, "heidi@example.com")
	require.NoError(t, err)

	matches := 0
	for _, pw := range []string{"password-1", "password-2"} {
		if cryptox.VerifyPassword(pw, final.PasswordHash) == nil {
			matches++
		}
	}
	require.Equal(t, 1, matches, "final hash should match exactly one candidate")
	require.Error(t, cryptox.VerifyPassword("password-0", final.PasswordHash))

	// The starting password must be retired into history exactly once; a
	// stale loser would have appended it a second time.
	entries, err := st.PasswordHistory().ListRecentHistory(ctx, u.ID, 10)
	require.NoError(t, err)

	retired := 0
	for _, e := range entries {
		if cryptox.VerifyPassword("password-0", e.Hash) == nil {
			retired++
		}
	}
	require.Equal(t, 1, retired, "starting password retired exactly once")
}

func TestForgotPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "CUSTOMER")
	env.seedUser(t, "erin@example.com", "password-0", role.ID)

	t.Run("unknown email is reported", func(t *testing.T) {
		err := env.Password.ForgotPassword(ctx, "ghost@example.com")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("issues a six digit code", func(t *testing.T) {
		require.NoError(t, env.Password.ForgotPassword(ctx, "erin@example.com"))

		code := env.resetCode(t)
		require.Len(t, code, 6)
	})

	t.Run("a new request invalidates the previous code", func(t *testing.T) {
		require.NoError(t, env.Password.ForgotPassword(ctx, "erin@example.com"))
		first := env.resetCode(t)

		require.NoError(t, env.Password.ForgotPassword(ctx, "erin@example.com"))
		second := env.resetCode(t)

		if first != second {
			require.ErrorIs(t,
				env.Password.VerifyResetCode(ctx, "erin@example.com", first),
				ErrCodeInvalid,
			)
		}
		require.NoError(t, env.Password.VerifyResetCode(ctx, "erin@example.com", second))
	})
}

func TestResetPasswordStateMachine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "CUSTOMER")
	env.seedUser(t, "frank@example.com", "password-0", role.ID)
	env.seedUser(t, "grace@example.com", "password-0", role.ID)

	issueCode := func(t *testing.T, email string) string {
		t.Helper()
		require.NoError(t, env.Password.ForgotPassword(ctx, email))
		return env.resetCode(t)
	}

	t.Run("full happy path", func(t *testing.T) {
		code := issueCode(t, "frank@example.com")

		require.NoError(t, env.Password.VerifyResetCode(ctx, "frank@example.com", code))
		require.NoError(t, env.Password.ResetPassword(ctx, "frank@example.com", code, "password-9"))

		_, err := env.Auth.Authenticate(ctx, "frank@example.com", "password-9")
		require.NoError(t, err)
	})

	t.Run("reset without verify is rejected", func(t *testing.T) {
		code := issueCode(t, "frank@example.com")
		err := env.Password.ResetPassword(ctx, "frank@example.com", code, "password-10")
		require.ErrorIs(t, err, ErrCodeNotVerified)
	})

	t.Run("a consumed code cannot be used again", func(t *testing.T) {
		code := issueCode(t, "frank@example.com")
		require.NoError(t, env.Password.VerifyResetCode(ctx, "frank@example.com", code))
		require.NoError(t, env.Password.ResetPassword(ctx, "frank@example.com", code, "password-11"))

		err := env.Password.ResetPassword(ctx, "frank@example.com", code, "password-12")
		require.ErrorIs(t, err, ErrCodeInvalid)
	})

	t.Run("codes are scoped to their email", func(t *testing.T) {
		code := issueCode(t, "frank@example.com")

		err := env.Password.VerifyResetCode(ctx, "grace@example.com", code)
		require.ErrorIs(t, err, ErrCodeInvalid)

		err = env.Password.ResetPassword(ctx, "grace@example.com", code, "password-13")
		require.ErrorIs(t, err, ErrCodeInvalid)
	})

	t.Run("expired codes are reported distinctly", func(t *testing.T) {
		// A service with a negative TTL mints codes that are already stale.
		stale := &PasswordService{
			Store:    env.Store,
			Notifier: env.Password.Notifier,
			ResetTTL: -time.Minute,
		}

		require.NoError(t, stale.ForgotPassword(ctx, "frank@example.com"))
		code := env.resetCode(t)

		err := env.Password.VerifyResetCode(ctx, "frank@example.com", code)
		require.ErrorIs(t, err, ErrCodeExpired)

		err = env.Password.ResetPassword(ctx, "frank@example.com", code, "password-14")
		require.ErrorIs(t, err, ErrCodeExpired)
	})

	t.Run("reset revokes outstanding sessions", func(t *testing.T) {
		pair, err := env.Auth.Authenticate(ctx, "grace@example.com", "password-0")
		require.NoError(t, err)

		code := issueCode(t, "grace@example.com")
		require.NoError(t, env.Password.VerifyResetCode(ctx, "grace@example.com", code))
		require.NoError(t, env.Password.ResetPassword(ctx, "grace@example.com", code, "password-15"))

		_, err = env.Auth.ExchangeRefreshToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("re-verifying an already verified code is harmless", func(t *testing.T) {
		code := issueCode(t, "frank@example.com")

		require.NoError(t, env.Password.VerifyResetCode(ctx, "frank@example.com", code))
		require.NoError(t, env.Password.VerifyResetCode(ctx, "frank@example.com", code))

		require.NoError(t, env.Password.ResetPassword(ctx, "frank@example.com", code, "password-16"))
	})

	t.Run("reset enforces the reuse window", func(t *testing.T) {
		code := issueCode(t, "grace@example.com")
		require.NoError(t, env.Password.VerifyResetCode(ctx, "grace@example.com", code))

		err := env.Password.ResetPassword(ctx, "grace@example.com", code, "password-15")
		require.ErrorIs(t, err, ErrPasswordUnchanged)
	})
}

