package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/internal/iam/store/drivers/sqlite"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
	"github.com/laptruong-hub/iam-service/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testAdminPassword = "Admin123!secret"

func TestMain(m *testing.M) {
	cryptox.SetPepperPath(filepath.Join(os.TempDir(), "iam-service-http-test-pepper"))
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  "test-issuer",
		NumKeys: 1,
	})
	require.NoError(t, err)

	notifier := &service.Notifier{Mailer: mailDiscard{}, Logger: slog.Default()}
	notifier.Start()
	t.Cleanup(notifier.Stop)

	sessions := &service.SessionService{Store: st, RefreshTTL: time.Hour}
	auth := &service.AuthService{
		KeyManager: km,
		Store:      st,
		Sessions:   sessions,
		Notifier:   notifier,
		Issuer:     "test-issuer",
		AccessTTL:  time.Minute,
	}

	require.NoError(t, service.Seed(context.Background(), st, testAdminPassword))

	r := NewRouter(km.KeySet, km.Verifier, "test-issuer", "test", st, slog.Default())
	r.AuthService = auth
	r.PasswordService = &service.PasswordService{Store: st, Notifier: notifier}
	r.AdminUserService = &service.AdminUserService{Store: st, Sessions: sessions, Notifier: notifier}
	r.RoleService = &service.RoleService{Store: st}
	r.PermissionService = &service.PermissionService{Store: st}
	r.ApplyRoutes()

	return r
}

type mailDiscard struct{}

func (mailDiscard) SendWelcomeEmail(ctx context.Context, to, fullName string) error { return nil }
func (mailDiscard) SendPasswordResetEmail(ctx context.Context, to, fullName, code string) error {
	return nil
}

// doJSON issues a request against the router. Each call carries its own
// forwarded IP so tests do not trip each other's rate limits.
func doJSON(t *testing.T, r *Router, method, path, token, ip string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", ip)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r *Router, email, password, ip string) tokenResponse {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", ip, map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair tokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	return pair
}

func TestRouterAuthFlow(t *testing.T) {
	r := newTestRouter(t)

	pair := login(t, r, service.SeedAdminEmail, testAdminPassword, "198.51.100.1")

	t.Run("introspect issued token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/introspect", "", "198.51.100.2", map[string]string{
			"token": pair.AccessToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var result struct {
			Active      bool     `json:"active"`
			Subject     string   `json:"sub"`
			Authorities []string `json:"authorities"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		require.True(t, result.Active)
		require.Equal(t, service.SeedAdminEmail, result.Subject)
		require.Contains(t, result.Authorities, "ROLE_ADMIN")
	})

	t.Run("introspect garbage is inactive not an error", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/introspect", "", "198.51.100.3", map[string]string{
			"token": "not-a-jwt",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"active":false`)
	})

	t.Run("profile requires bearer token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/api/v1/auth/profile", "", "198.51.100.4", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doJSON(t, r, http.MethodGet, "/api/v1/auth/profile", pair.AccessToken, "198.51.100.5", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), service.SeedAdminEmail)
	})

	t.Run("refresh returns the same opaque token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh-token", "", "198.51.100.6", map[string]string{
			"refresh_token": pair.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var next tokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&next))
		require.Equal(t, pair.RefreshToken, next.RefreshToken)
		require.NotEmpty(t, next.AccessToken)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", "", "198.51.100.7", map[string]string{
			"refresh_token": pair.RefreshToken,
		})
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh-token", "", "198.51.100.8", map[string]string{
			"refresh_token": pair.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRouterAuthorization(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", "203.0.113.1", map[string]string{
		"email":     "rider@example.com",
		"full_name": "Rider Example",
		"password":  "RiderPass123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	customer := login(t, r, "rider@example.com", "RiderPass123", "203.0.113.2")
	admin := login(t, r, service.SeedAdminEmail, testAdminPassword, "203.0.113.3")

	t.Run("admin endpoints reject anonymous callers", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/api/v1/admin/users", "", "203.0.113.4", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin endpoints reject customers", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/api/v1/admin/users", customer.AccessToken, "203.0.113.5", nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin endpoints admit holders of MANAGE_USERS", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/api/v1/admin/users", admin.AccessToken, "203.0.113.6", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var page userListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		require.GreaterOrEqual(t, page.Total, 2)
	})

	t.Run("role catalog needs MANAGE_ROLES", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/api/v1/roles", customer.AccessToken, "203.0.113.7", nil)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, r, http.MethodGet, "/api/v1/roles", admin.AccessToken, "203.0.113.8", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/livez", "", "192.0.2.10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = doJSON(t, r, http.MethodGet, "/readyz", "", "192.0.2.11", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)
}
