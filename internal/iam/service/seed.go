package service

import (
	"context"
	"log/slog"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
	"github.com/laptruong-hub/iam-service/pkg/idx"
	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

// SeedAdminEmail is the bootstrap administrator account created on first run.
const SeedAdminEmail = "admin@rental.com"

type seedPermission struct {
	name        string
	description string
}

type seedRole struct {
	name        string
	permissions []string
}

// The initial catalog for the vehicle rental platform. Applied only when the
// role table is empty, so operators can freely edit everything afterwards.
var (
	seedPermissions = []seedPermission{
		{"CREATE_BOOKING", "Create vehicle bookings"},
		{"VIEW_VEHICLE", "View the vehicle catalog"},
		{"MANAGE_USERS", "Manage user accounts"},
		{"MANAGE_FLEET", "Manage the vehicle fleet"},
		{"VIEW_TRIP_DETAILS", "View trip details"},
		{"UPDATE_TRIP_STATUS", "Update trip status"},
		{"REPORT_CAR_ISSUE", "Report vehicle issues"},
		{"MANAGE_PERMISSIONS", "Manage the permission catalog"},
		{"MANAGE_ROLES", "Manage roles"},
	}

	seedRoles = []seedRole{
		{"CUSTOMER", []string{"CREATE_BOOKING", "VIEW_VEHICLE"}},
		{"STAFF", []string{"VIEW_VEHICLE", "CREATE_BOOKING"}},
		{"ADMIN", []string{
			"CREATE_BOOKING", "VIEW_VEHICLE", "MANAGE_USERS", "MANAGE_FLEET",
			"VIEW_TRIP_DETAILS", "UPDATE_TRIP_STATUS", "MANAGE_ROLES", "MANAGE_PERMISSIONS",
		}},
		{"DRIVER", []string{"VIEW_VEHICLE", "VIEW_TRIP_DETAILS", "UPDATE_TRIP_STATUS", "REPORT_CAR_ISSUE"}},
	}
)

// Seed provisions the role and permission catalog plus a default admin
// account on an empty database. Subsequent runs are no-ops.
func Seed(ctx context.Context, st store.Store, adminPassword string) error {
	l := slogx.FromContext(ctx)

	empty, err := st.Roles().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	l.Info("seeding initial role and permission catalog")

	return st.WithTx(ctx, func(tx store.Tx) error {
		permIDs := make(map[string]string, len(seedPermissions))
		for _, sp := range seedPermissions {
			p := domain.Permission{
				ID:          idx.New().String(),
				Name:        sp.name,
				Description: sp.description,
				Action:      sp.name,
			}
			if err := tx.Permissions().CreatePermission(ctx, p); err != nil {
				return err
			}
			permIDs[sp.name] = p.ID
		}

		var adminRoleID string
		for _, sr := range seedRoles {
			role := domain.Role{
				ID:     idx.New().String(),
				Name:   sr.name,
				Active: true,
			}
			if err := tx.Roles().CreateRole(ctx, role); err != nil {
				return err
			}
			for _, pname := range sr.permissions {
				if err := tx.Roles().AddPermission(ctx, role.ID, permIDs[pname]); err != nil {
					return err
				}
			}
			if sr.name == "ADMIN" {
				adminRoleID = role.ID
			}
		}

		hash, err := cryptox.HashPassword(adminPassword)
		if err != nil {
			return err
		}

		admin := domain.User{
			ID:           idx.New().String(),
			Email:        SeedAdminEmail,
			FullName:     "Super Administrator",
			PasswordHash: hash,
			RoleID:       adminRoleID,
			Status:       domain.UserStatusActive,
		}
		if err := tx.Users().CreateUser(ctx, admin); err != nil {
			return err
		}

		l.Info("default admin account created", slog.String("email", SeedAdminEmail))
		return nil
	})
}
