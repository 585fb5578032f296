package sqlite

import (
	"context"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
)

type passwordHistoryRepo struct {
	db dbtx
}

func (r *passwordHistoryRepo) AppendHistory(ctx context.Context, e domain.PasswordHistoryEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_history (id, user_id, hash, changed_at)
		 VALUES (?, ?, ?, ?)`,
		e.ID, e.UserID, e.Hash, e.ChangedAt,
	)
	return err
}

func (r *passwordHistoryRepo) ListRecentHistory(ctx context.Context, userID string, n int) ([]domain.PasswordHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, hash, changed_at
		 FROM password_history
		 WHERE user_id = ?
		 ORDER BY changed_at DESC, id DESC
		 LIMIT ?`, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PasswordHistoryEntry
	for rows.Next() {
		var e domain.PasswordHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Hash, &e.ChangedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
