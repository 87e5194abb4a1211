package tenant

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/platform/httpx"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// Handler exposes company endpoints. Create goes through onboarding so a
// new company starts with its baseline roles; the rest is the standard
// resource route set.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.onboard)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Post("/{id}/activar", h.activate)
	r.Post("/{id}/desactivar", h.deactivate)
}

type companyRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"max=200"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.Controller().List(r.Context(), authz.PrincipalFromContext(r.Context()))
	if err != nil {
		h.fail(w, "list companies", err)
		return
	}
	if companies == nil {
		companies = []*Company{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": companies})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	company, err := h.service.Controller().Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get company", err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if !h.decode(w, r, &req) {
		return
	}
	company, err := h.service.Onboard(r.Context(), authz.PrincipalFromContext(r.Context()), &Company{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.fail(w, "onboard company", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, company)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req companyRequest
	if !h.decode(w, r, &req) {
		return
	}
	company, err := h.service.Controller().Update(r.Context(), authz.PrincipalFromContext(r.Context()), &Company{
		ID:      id,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.fail(w, "update company", err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	company, err := h.service.Controller().Activate(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "activate company", err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	company, err := h.service.Controller().Deactivate(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "deactivate company", err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
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
