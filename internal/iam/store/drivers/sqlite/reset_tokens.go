package sqlite

import (
	"context"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
)

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) CreateResetToken(ctx context.Context, t domain.PasswordResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (id, email, code, expires_at, verified, used)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Email, t.Code, t.ExpiresAt, t.Verified, t.Used,
	)
	return err
}

func (r *resetTokensRepo) GetActiveResetToken(ctx context.Context, email, code string) (domain.PasswordResetToken, error) {
	var t domain.PasswordResetToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, code, expires_at, verified, used, created_at
		 FROM password_reset_tokens
		 WHERE email = ? AND code = ? AND used = 0
		 ORDER BY created_at DESC
		 LIMIT 1`, email, code).
		Scan(&t.ID, &t.Email, &t.Code, &t.ExpiresAt, &t.Verified, &t.Used, &t.CreatedAt)
	if err != nil {
		return domain.PasswordResetToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *resetTokensRepo) MarkResetTokenVerified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET verified = 1 WHERE id = ? AND used = 0`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ConsumeResetToken is guarded on used = 0 so that concurrent resets with the
// same code race on the row update; exactly one wins, the rest get ErrNotFound.
func (r *resetTokensRepo) ConsumeResetToken(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = 1 WHERE id = ? AND used = 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *resetTokensRepo) DeleteUnusedResetTokens(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE email = ? AND used = 0`, email)
	return err
}

func (r *resetTokensRepo) DeleteExpiredResetTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
