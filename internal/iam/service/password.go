package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/obs"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
	"github.com/laptruong-hub/iam-service/pkg/idx"
	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

// ResetCodeTTL is the validity window of a recovery code.
const ResetCodeTTL = 5 * time.Minute

// PasswordService implements the password lifecycle: authenticated change,
// and the forgot / verify / reset recovery flow driven by emailed one-time
// codes.
type PasswordService struct {
	Store    store.Store
	Notifier *Notifier

	// ResetTTL overrides the recovery code validity window. Zero means
	// ResetCodeTTL.
	ResetTTL time.Duration
}

// ChangePassword updates an authenticated user's password. The current
// password must verify, the new one must differ from it and from the last
// three retired hashes. On success the pre-change hash joins the history,
// the credential is overwritten and every refresh session is revoked, all in
// one transaction.
func (s *PasswordService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	var userID string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Verify and history checks must read the same snapshot the write
		// commits against, so the whole flow runs in one transaction.
		u, err := tx.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
		userID = u.ID

		if err := cryptox.VerifyPassword(oldPassword, u.PasswordHash); err != nil {
			return ErrInvalidCredentials
		}

		if err := checkNotRecent(ctx, tx, u, newPassword); err != nil {
			return err
		}

		return applyNewPassword(ctx, tx, u, newPassword)
	})
	if err != nil {
		return err
	}

	l.Info("password changed", slog.String("user_id", userID))
	return nil
}

// ForgotPassword starts the recovery flow: any outstanding unused codes for
// the email are discarded and a fresh 6-digit code with a 5-minute window is
// minted and queued for delivery.
func (s *PasswordService) ForgotPassword(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	email = strings.TrimSpace(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			obs.PasswordResetsTotal.WithLabelValues("forgot", "unknown_email").Inc()
			return ErrUserNotFound
		}
		return err
	}

	code, err := cryptox.GenerateOTP()
	if err != nil {
		return err
	}

	ttl := s.ResetTTL
	if ttl == 0 {
		ttl = ResetCodeTTL
	}
	token := domain.PasswordResetToken{
		ID:        idx.New().String(),
		Email:     u.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(ttl),
	}

	// Purge-then-create in one transaction so at most one live code exists
	// per email.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetTokens().DeleteUnusedResetTokens(ctx, u.Email); err != nil {
			return err
		}
		return tx.ResetTokens().CreateResetToken(ctx, token)
	})
	if err != nil {
		return err
	}

	s.Notifier.SubmitReset(u.Email, u.FullName, code)

	obs.PasswordResetsTotal.WithLabelValues("forgot", "success").Inc()
	l.Info("password reset code issued", slog.String("user_id", u.ID))
	return nil
}

// VerifyResetCode checks an emailed code. The lookup is an exact email+code
// match; a correct code for a different email proves nothing. Expired codes
// are reported distinctly so clients can prompt for a fresh one.
func (s *PasswordService) VerifyResetCode(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)

	token, err := s.Store.ResetTokens().GetActiveResetToken(ctx, email, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			obs.PasswordResetsTotal.WithLabelValues("verify", "invalid").Inc()
			return ErrCodeInvalid
		}
		return err
	}

	if token.Expired(time.Now()) {
		obs.PasswordResetsTotal.WithLabelValues("verify", "expired").Inc()
		return ErrCodeExpired
	}

	if err := s.Store.ResetTokens().MarkResetTokenVerified(ctx, token.ID); err != nil {
		return err
	}

	obs.PasswordResetsTotal.WithLabelValues("verify", "success").Inc()
	return nil
}

// ResetPassword consumes a verified code and sets a new password. The code
// can authorize exactly one reset: consumption is a guarded update inside
// the same transaction that overwrites the credential, so two racing resets
// with the same code cannot both win.
func (s *PasswordService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	l := slogx.FromContext(ctx)
	email = strings.TrimSpace(email)

	var userID string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		token, err := tx.ResetTokens().GetActiveResetToken(ctx, email, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCodeInvalid
			}
			return err
		}

		if token.Expired(time.Now()) {
			return ErrCodeExpired
		}
		if !token.Verified {
			return ErrCodeNotVerified
		}

		if err := tx.ResetTokens().ConsumeResetToken(ctx, token.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCodeInvalid
			}
			return err
		}

		u, err := tx.Users().GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		userID = u.ID

		if err := checkNotRecent(ctx, tx, u, newPassword); err != nil {
			return err
		}

		return applyNewPassword(ctx, tx, u, newPassword)
	})
	if err != nil {
		obs.PasswordResetsTotal.WithLabelValues("reset", "failed").Inc()
		return err
	}

	obs.PasswordResetsTotal.WithLabelValues("reset", "success").Inc()
	l.Info("password reset completed", slog.String("user_id", userID))
	return nil
}

// checkNotRecent rejects a candidate that matches the current password or
// any of the last PasswordHistoryDepth retired hashes.
func checkNotRecent(ctx context.Context, st store.Store, u domain.User, candidate string) error {
	if cryptox.VerifyPassword(candidate, u.PasswordHash) == nil {
		return ErrPasswordUnchanged
	}

	history, err := st.PasswordHistory().ListRecentHistory(ctx, u.ID, domain.PasswordHistoryDepth)
	if err != nil {
		return err
	}
	for _, entry := range history {
		if cryptox.VerifyPassword(candidate, entry.Hash) == nil {
			return ErrPasswordReused
		}
	}
	return nil
}

// applyNewPassword performs the atomic tail of a password change: history
// append, credential overwrite, session revocation. Must run inside a
// transaction.
func applyNewPassword(ctx context.Context, tx store.Tx, u domain.User, newPassword string) error {
	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	// The outgoing hash joins the history before the overwrite, so the
	// window the reuse check sees always trails the current credential.
	entry := domain.PasswordHistoryEntry{
		ID:        idx.New().String(),
		UserID:    u.ID,
		Hash:      u.PasswordHash,
		ChangedAt: time.Now().UTC(),
	}
	if err := tx.PasswordHistory().AppendHistory(ctx, entry); err != nil {
		return err
	}

	if err := tx.Users().UpdatePasswordHash(ctx, u.ID, newHash); err != nil {
		return err
	}

	return tx.RefreshTokens().DeleteAllUserRefreshTokens(ctx, u.ID)
}
