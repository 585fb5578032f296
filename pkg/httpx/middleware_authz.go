package httpx

import (
	"net/http"
	"strings"
)

// RequireAuthenticated rejects requests that carry no verified identity.
func RequireAuthenticated() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SubjectFromContext(r.Context()) == "" {
				writeBearerError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyAuthority permits the request when the caller's authority set
// contains at least one of the required authority strings. Membership is
// exact-match only; no hierarchy between authorities is evaluated.
// Unauthenticated callers get 401, authenticated callers without the
// authority get 403.
func RequireAnyAuthority(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, a := range required {
		want[a] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SubjectFromContext(r.Context()) == "" {
				writeBearerError(w)
				return
			}

			for _, a := range AuthoritiesFromContext(r.Context()) {
				if _, ok := want[a]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthorityError(w, required...)
		})
	}
}

// RFC 6750-style error response for missing/invalid bearer auth.
func writeBearerError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
}

func writeAuthorityError(w http.ResponseWriter, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "forbidden", "missing required authority")
}
