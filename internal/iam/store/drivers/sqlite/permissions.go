package sqlite

import (
	"context"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
)

type permissionsRepo struct {
	db dbtx
}

const permissionColumns = `id, name, description, action, created_at, updated_at`

func scanPermission(row interface{ Scan(...any) error }) (domain.Permission, error) {
	var p domain.Permission
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Action,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *permissionsRepo) GetPermissionByID(ctx context.Context, id string) (domain.Permission, error) {
	p, err := scanPermission(r.db.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = ?`, id))
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) GetPermissionByName(ctx context.Context, name string) (domain.Permission, error) {
	p, err := scanPermission(r.db.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE name = ?`, name))
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) ListAll(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO permissions (id, name, description, action) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Action,
	)
	return mapConstraint(err)
}

func (r *permissionsRepo) UpdatePermission(ctx context.Context, p domain.Permission) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE permissions SET name = ?, description = ?, action = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.Action, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *permissionsRepo) DeletePermission(ctx context.Context, permissionID string) error {
	// role_permissions rows cascade with the permission.
	res, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE id = ?`, permissionID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
