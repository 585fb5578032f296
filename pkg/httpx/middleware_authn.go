package httpx

import (
	"net/http"
	"strings"

	"github.com/laptruong-hub/iam-service/pkg/jwtx"
	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

// AuthGateMiddleware is the per-request authorization gate. It extracts the
// bearer token from the Authorization header, validates it, and attaches the
// identity and resolved authority set to the request context.
//
// The gate never aborts the pipeline: a missing, malformed, or invalid token
// degrades the request to unauthenticated and downstream guards decide
// whether that is acceptable (401/403 semantics live in the guards).
func AuthGateMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				// Fail closed: invalid means "no identity", never an error.
				slogx.FromContext(ctx).Debug("bearer token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(ctx, claims)))
		})
	}
}
