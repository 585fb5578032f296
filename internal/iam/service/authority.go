package service

import (
	"context"

	"github.com/laptruong-hub/iam-service/internal/iam/domain"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
)

// ResolveAuthorities computes the effective authority set for a user from the
// current role/permission tables: the union of the role's permission actions
// plus the ROLE_<name> marker. It is evaluated fresh on every credential or
// refresh exchange, never cached, so role edits take effect on the next
// exchange without touching already-issued access tokens.
//
// An inactive role keeps its ROLE_ marker but contributes no permission
// actions.
func ResolveAuthorities(ctx context.Context, st store.Store, user domain.User) ([]string, domain.Role, error) {
	role, err := st.Roles().GetRoleByID(ctx, user.RoleID)
	if err != nil {
		return nil, domain.Role{}, err
	}

	var authorities []string
	if role.Active {
		perms, err := st.Roles().ListPermissions(ctx, role.ID)
		if err != nil {
			return nil, domain.Role{}, err
		}
		for _, p := range perms {
			if p.Action != "" {
				authorities = append(authorities, p.Action)
			}
		}
	}
	authorities = append(authorities, role.Authority())

	return dedupe(authorities), role, nil
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
