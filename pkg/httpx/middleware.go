// Package httpx provides the HTTP middleware used across the service:
// the bearer-token authorization gate, authority guards, rate limiting, and
// JSON response helpers.
package httpx

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware = func(http.Handler) http.Handler

// Chain applies middlewares to h so the first listed middleware runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
