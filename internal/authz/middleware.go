package authz

import (
	"log/slog"
	"net/http"

	"github.com/comercio-cloud/comercio/internal/platform/httpx"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require ensures the current principal may perform action on module before
// the wrapped handler runs. Deny decisions short-circuit with a uniform
// Forbidden response.
func (m Middleware) Require(module string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			decision := m.Service.Decide(r.Context(), p, module, action)
			if !decision.Allowed {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.String("module", module),
						slog.String("action", string(action)),
						slog.String("reason", decision.Reason))
				}
				httpx.RespondError(w, decision.Err())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated only checks that a principal is attached; used for
// surfaces gated on authentication alone.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).Authenticated() {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
