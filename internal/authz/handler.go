package authz

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/comercio-cloud/comercio/internal/platform/httpx"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// Handler exposes the policy administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers policy routes. Module management is itself a
// protected module; role and permission administration only requires an
// authenticated principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuthenticated)
		r.Get("/roles", h.listRoles)
		r.Post("/roles", h.createRole)
		r.Put("/roles/{id}", h.updateRole)
		r.Delete("/roles/{id}", h.deleteRole)

		r.Get("/roles/{id}/permissions", h.listPermissions)
		r.Post("/permissions", h.setPermission)
		r.Delete("/permissions/{id}", h.removePermission)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require("Module", ActionView))
		r.Get("/modules", h.listModules)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require("Module", ActionCreate))
		r.Post("/modules", h.createModule)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require("Module", ActionUpdate))
		r.Put("/modules/{id}", h.updateModule)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require("Module", ActionDelete))
		r.Delete("/modules/{id}", h.deleteModule)
	})
}

type roleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	TenantID    *int64 `json:"tenant_id,omitempty" validate:"omitempty,gt=0"`
}

type moduleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type permissionRequest struct {
	RoleID    int64 `json:"role_id" validate:"required,gt=0"`
	ModuleID  int64 `json:"module_id" validate:"required,gt=0"`
	CanView   bool  `json:"can_view"`
	CanCreate bool  `json:"can_create"`
	CanUpdate bool  `json:"can_update"`
	CanDelete bool  `json:"can_delete"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	roles, err := h.service.ListRoles(r.Context(), p.TenantID)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Description, req.TenantID)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, req.Name, req.Description)
	if err != nil {
		h.logger.Error("update role", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.logger.Error("delete role", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.service.ListModules(r.Context())
	if err != nil {
		h.logger.Error("list modules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": modules})
}

func (h *Handler) createModule(w http.ResponseWriter, r *http.Request) {
	var req moduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	module, err := h.service.CreateModule(r.Context(), req.Name, req.Description, isActive)
	if err != nil {
		h.logger.Error("create module", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, module)
}

func (h *Handler) updateModule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req moduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	module, err := h.service.UpdateModule(r.Context(), id, req.Name, req.Description, isActive)
	if err != nil {
		h.logger.Error("update module", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, module)
}

func (h *Handler) deleteModule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteModule(r.Context(), id); err != nil {
		h.logger.Error("delete module", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	perms, err := h.service.ListPermissions(r.Context(), id)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err), slog.Int64("role_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) setPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if !h.decode(w, r, &req) {
		return
	}
	perm, err := h.service.SetPermission(r.Context(), Permission{
		RoleID:    req.RoleID,
		ModuleID:  req.ModuleID,
		CanView:   req.CanView,
		CanCreate: req.CanCreate,
		CanUpdate: req.CanUpdate,
		CanDelete: req.CanDelete,
	})
	if err != nil {
		h.logger.Error("set permission", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}

func (h *Handler) removePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.RemovePermission(r.Context(), id); err != nil {
		h.logger.Error("remove permission", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrValidation)
		return 0, false
	}
	return id, true
}
