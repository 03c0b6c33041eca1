package http

import (
	"net/http"

	"github.com/fernhill/userd/internal/domain"
	"github.com/fernhill/userd/pkg/httpx"
)

// requireRole gates a handler on the caller's role claim, injected by the
// authn middleware.
func requireRole(required domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := httpx.RoleFromContext(r.Context())
			if !domain.RoleAtLeast(domain.Role(role), required) {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireSelfOrRole allows the request through when the {id} path value is
// the caller's own id, or when the caller holds the given role. Admins can
// manage anyone; users can only manage themselves.
func requireSelfOrRole(role domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := httpx.UserIDFromContext(r.Context())
			if userID == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
				return
			}
			if r.PathValue("id") == userID {
				next.ServeHTTP(w, r)
				return
			}
			if have := httpx.RoleFromContext(r.Context()); !domain.RoleAtLeast(domain.Role(have), role) {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
