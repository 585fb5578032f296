package service

import (
	"context"
	"errors"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
	"github.com/laptruong-hub/iam-service/pkg/idx"
)

// SessionService owns refresh session persistence. Raw refresh tokens never
// touch the database; rows are keyed by the token's SHA-256 fingerprint.
type SessionService struct {
	Store      store.Store
	RefreshTTL time.Duration
}

// Create mints a new opaque refresh token for the user and persists its
// fingerprint. Returns the raw token, which is shown to the caller exactly
// once.
func (s *SessionService) Create(ctx context.Context, userID string, now time.Time) (string, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: now.Add(s.RefreshTTL),
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return "", err
	}
	return opaque, nil
}

// Lookup resolves a raw refresh token to its stored session. Unknown and
// expired tokens both come back as ErrInvalidRefresh; the caller cannot tell
// the difference, which is intentional.
func (s *SessionService) Lookup(ctx context.Context, refreshOpaque string, now time.Time) (domain.RefreshToken, error) {
	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RefreshToken{}, ErrInvalidRefresh
		}
		return domain.RefreshToken{}, err
	}
	if rt.Expired(now) {
		return domain.RefreshToken{}, ErrInvalidRefresh
	}
	return rt, nil
}

// Revoke removes a single session by its raw token (logout). Revoking a
// token that is already gone is not an error.
func (s *SessionService) Revoke(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)
	err := s.Store.RefreshTokens().DeleteRefreshTokenByHash(ctx, fp)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// RevokeAll removes every session for a user. Used after password changes
// and account deactivation so stale refresh tokens stop working immediately.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) error {
	return s.Store.RefreshTokens().DeleteAllUserRefreshTokens(ctx, userID)
}
