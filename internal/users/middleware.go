package users

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// PrincipalLookup resolves a user id to the account and its role.
type PrincipalLookup interface {
	FindByID(ctx context.Context, id int64) (*User, *authz.Role, error)
}

// PrincipalMiddleware turns the session's user reference into an
// authz.Principal in the request context. Anything that fails to resolve
// leaves the request unauthenticated; downstream checks deny from there.
type PrincipalMiddleware struct {
	Lookup PrincipalLookup
	Logger *slog.Logger
}

// Resolve is the http middleware.
func (m PrincipalMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := strconv.ParseInt(sess.User(), 10, 64)
		if err != nil || userID <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		user, role, err := m.Lookup.FindByID(r.Context(), userID)
		if err != nil {
			m.Logger.Warn("resolve principal", slog.Int64("user_id", userID), slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}
		principal := &authz.Principal{
			UserID:   user.ID,
			Email:    user.Email,
			TenantID: user.TenantID,
			Role:     role,
		}
		next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), principal)))
	})
}
