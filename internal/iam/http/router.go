package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/laptruong-hub/iam-service/internal/iam/obs"
	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/pkg/httpx"
	"github.com/laptruong-hub/iam-service/pkg/jwtx"
	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	AuthService       *service.AuthService
	PasswordService   *service.PasswordService
	AdminUserService  *service.AdminUserService
	RoleService       *service.RoleService
	PermissionService *service.PermissionService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain. The auth gate parses bearer tokens for
	// every route; requests without a valid token run as unauthenticated and
	// the per-route guards decide whether that is acceptable.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		obs.Instrument,
		httpx.AuthGateMiddleware(r.verifier),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPasswordReset()
	r.registerProfile()
	r.registerAdminUsers()
	r.registerRoles()
	r.registerPermissions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /api/v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /api/v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh-token - moderate rate limit by IP (opaque token, no subject yet)
	r.Mux.Handle("POST /api/v1/auth/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - moderate rate limit by IP
	r.Mux.Handle("POST /api/v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /introspect - moderate rate limit by IP
	r.Mux.Handle("POST /api/v1/auth/introspect",
		httpx.Chain(http.HandlerFunc(h.HandleIntrospect),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{PasswordService: r.PasswordService}

	// All three legs are unauthenticated and brute-forceable, so they share
	// the strict IP limit.
	r.Mux.Handle("POST /api/v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/verify-reset-code",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{
		AuthService:     r.AuthService,
		PasswordService: r.PasswordService,
	}

	r.Mux.Handle("GET /api/v1/auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RequireAuthenticated(),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /api/v1/auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RequireAuthenticated(),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// POST /change-password - strict rate limit by subject (old password is
	// guessed here, not at login)
	r.Mux.Handle("POST /api/v1/auth/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			httpx.RequireAuthenticated(),
			httpx.RateLimitBySubject(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdminUsers() {
	h := &AdminUsersHandler{
		AdminService: r.AdminUserService,
		RoleService:  r.RoleService,
	}

	guard := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.RequireAnyAuthority("MANAGE_USERS"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /api/v1/admin/users", guard(h.HandleList))
	r.Mux.Handle("POST /api/v1/admin/users", guard(h.HandleCreate))
	r.Mux.Handle("GET /api/v1/admin/users/{id}", guard(h.HandleGet))
	r.Mux.Handle("PUT /api/v1/admin/users/{id}", guard(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/v1/admin/users/{id}", guard(h.HandleDelete))
	r.Mux.Handle("PATCH /api/v1/admin/users/{id}/activate", guard(h.HandleActivate))
	r.Mux.Handle("PATCH /api/v1/admin/users/{id}/deactivate", guard(h.HandleDeactivate))
	r.Mux.Handle("POST /api/v1/admin/users/{id}/reset-password", guard(h.HandleResetPassword))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RoleService: r.RoleService}

	guard := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.RequireAnyAuthority("MANAGE_ROLES"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /api/v1/roles", guard(h.HandleList))
	r.Mux.Handle("GET /api/v1/roles/active", guard(h.HandleListActive))
	r.Mux.Handle("POST /api/v1/roles", guard(h.HandleCreate))
	r.Mux.Handle("GET /api/v1/roles/{id}", guard(h.HandleGet))
	r.Mux.Handle("GET /api/v1/roles/name/{name}", guard(h.HandleGetByName))
	r.Mux.Handle("PUT /api/v1/roles/{id}", guard(h.HandleUpdate))
	r.Mux.Handle("PATCH /api/v1/roles/{id}/activate", guard(h.HandleActivate))
	r.Mux.Handle("PATCH /api/v1/roles/{id}/deactivate", guard(h.HandleDeactivate))
	r.Mux.Handle("DELETE /api/v1/roles/{id}", guard(h.HandleDelete))
	r.Mux.Handle("POST /api/v1/roles/{id}/permissions/{permissionID}", guard(h.HandleAssignPermission))
	r.Mux.Handle("DELETE /api/v1/roles/{id}/permissions/{permissionID}", guard(h.HandleRemovePermission))
}

func (r *Router) registerPermissions() {
	h := &PermissionsHandler{PermissionService: r.PermissionService}

	guard := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.RequireAnyAuthority("MANAGE_PERMISSIONS"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /api/v1/permissions", guard(h.HandleList))
	r.Mux.Handle("POST /api/v1/permissions", guard(h.HandleCreate))
	r.Mux.Handle("GET /api/v1/permissions/{id}", guard(h.HandleGet))
	r.Mux.Handle("PUT /api/v1/permissions/{id}", guard(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/v1/permissions/{id}", guard(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /metrics", obs.Handler())
}
