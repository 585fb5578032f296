package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
	"github.com/laptruong-hub/iam-service/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingPurgesExpiredRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	role := env.seedRole(t, "CUSTOMER")
	u := env.seedUser(t, "hk@example.com", "pw-hk-111", role.ID)

	// One live and one expired refresh session.
	liveOpaque, err := env.Sessions.Create(ctx, u.ID, time.Now())
	require.NoError(t, err)

	expired := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken("expired-session"),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, env.Store.RefreshTokens().CreateRefreshToken(ctx, expired))

	// One expired reset code.
	staleCode := domain.PasswordResetToken{
		ID:        idx.New().String(),
		Email:     "hk@example.com",
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, env.Store.ResetTokens().CreateResetToken(ctx, staleCode))

	hk := NewHousekeepingService(env.Store, slog.Default(), time.Hour)
	hk.cleanup()

	// Live session survives, expired ones are gone.
	_, err = env.Sessions.Lookup(ctx, liveOpaque, time.Now())
	require.NoError(t, err)

	_, err = env.Store.RefreshTokens().GetRefreshTokenByHash(ctx, expired.TokenHash)
	require.Error(t, err)

	_, err = env.Store.ResetTokens().GetActiveResetToken(ctx, "hk@example.com", "123456")
	require.Error(t, err)
}
