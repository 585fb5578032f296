package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, full_name, phone, password_hash, role_id, status, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var phone sql.NullString
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &phone,
		&u.PasswordHash, &u.RoleID, &u.Status,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Phone = mapNullStringPtr(phone)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND status != 'deleted'`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND status != 'deleted'`, email))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	status := u.Status
	if status == "" {
		status = domain.UserStatusActive
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, phone, password_hash, role_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, mapOptionalString(u.Phone),
		u.PasswordHash, u.RoleID, status,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID string, fullName string, phone *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = ?, phone = ?, updated_at = ?
		 WHERE id = ? AND status != 'deleted'`,
		fullName, mapOptionalString(phone), time.Now().UTC(), userID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ?
		 WHERE id = ? AND status != 'deleted'`,
		newHash, time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, roleID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role_id = ?, updated_at = ?
		 WHERE id = ? AND status != 'deleted'`,
		roleID, time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ListUsers(ctx context.Context, f store.UserFilter) ([]domain.User, error) {
	query, args := buildUserFilter(
		`SELECT `+userColumns+` FROM users`, f)
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) CountUsers(ctx context.Context, f store.UserFilter) (int, error) {
	query, args := buildUserFilter(`SELECT COUNT(*) FROM users`, f)
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE status != 'deleted'`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// buildUserFilter appends the WHERE clause for a UserFilter. Deleted users
// are always excluded unless the filter asks for them explicitly.
func buildUserFilter(query string, f store.UserFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, f.Status)
	} else {
		conds = append(conds, `status != 'deleted'`)
	}

	if f.RoleID != "" {
		conds = append(conds, `role_id = ?`)
		args = append(args, f.RoleID)
	}

	if f.Query != "" {
		conds = append(conds, `(email LIKE ? OR full_name LIKE ? OR phone LIKE ?)`)
		pattern := "%" + f.Query + "%"
		args = append(args, pattern, pattern, pattern)
	}

	return query + ` WHERE ` + strings.Join(conds, " AND "), args
}

// requireRow turns zero-row updates into store.ErrNotFound so callers can
// distinguish a missing user from a successful mutation.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
