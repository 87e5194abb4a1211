package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/comercio-cloud/comercio/internal/audit"
	"github.com/comercio-cloud/comercio/internal/auth"
	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/branches"
	"github.com/comercio-cloud/comercio/internal/catalog"
	"github.com/comercio-cloud/comercio/internal/shared"
	"github.com/comercio-cloud/comercio/internal/tenant"
	"github.com/comercio-cloud/comercio/internal/users"
	"github.com/comercio-cloud/comercio/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Principal      func(http.Handler) http.Handler

	AuthHandler    *auth.Handler
	AuthzHandler   *authz.Handler
	AuditHandler   *audit.Handler
	TenantHandler  *tenant.Handler
	UsersHandler   *users.Handler
	CatalogHandler *catalog.Handler
	BranchHandler  *branches.Handler
	JobHandler     *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Principal:      params.Principal,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/api/v1", func(r chi.Router) {
		params.AuthzHandler.MountRoutes(r)
		r.Route("/bitacora", params.AuditHandler.MountRoutes)
		r.Route("/empresas", params.TenantHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		params.CatalogHandler.MountRoutes(r)
		r.Route("/sucursales", params.BranchHandler.MountRoutes)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
