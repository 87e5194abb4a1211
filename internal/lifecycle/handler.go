package lifecycle

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/platform/httpx"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// Binder decodes and validates a request body into a resource. id is zero
// on create and the path id otherwise.
type Binder[T Resource] func(r *http.Request, id int64) (T, error)

// Endpoint exposes a controller over HTTP with the standard route set:
// list, retrieve, create, update, activar, desactivar. Authorization is
// the controller's job, so the routes carry no additional guards.
type Endpoint[T Resource] struct {
	logger     *slog.Logger
	controller *Controller[T]
	bind       Binder[T]
}

// NewEndpoint constructs an Endpoint.
func NewEndpoint[T Resource](logger *slog.Logger, controller *Controller[T], bind Binder[T]) *Endpoint[T] {
	return &Endpoint[T]{logger: logger, controller: controller, bind: bind}
}

// MountRoutes registers the resource routes.
func (e *Endpoint[T]) MountRoutes(r chi.Router) {
	r.Get("/", e.list)
	r.Post("/", e.create)
	r.Get("/{id}", e.get)
	r.Put("/{id}", e.update)
	r.Post("/{id}/activar", e.activate)
	r.Post("/{id}/desactivar", e.deactivate)
}

func (e *Endpoint[T]) list(w http.ResponseWriter, r *http.Request) {
	items, err := e.controller.List(r.Context(), authz.PrincipalFromContext(r.Context()))
	if err != nil {
		e.fail(w, "list", err)
		return
	}
	if items == nil {
		items = []T{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": items})
}

func (e *Endpoint[T]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := e.pathID(w, r)
	if !ok {
		return
	}
	item, err := e.controller.Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		e.fail(w, "get", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (e *Endpoint[T]) create(w http.ResponseWriter, r *http.Request) {
	item, err := e.bind(r, 0)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	created, err := e.controller.Create(r.Context(), authz.PrincipalFromContext(r.Context()), item)
	if err != nil {
		e.fail(w, "create", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (e *Endpoint[T]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := e.pathID(w, r)
	if !ok {
		return
	}
	item, err := e.bind(r, id)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	updated, err := e.controller.Update(r.Context(), authz.PrincipalFromContext(r.Context()), item)
	if err != nil {
		e.fail(w, "update", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (e *Endpoint[T]) activate(w http.ResponseWriter, r *http.Request) {
	id, ok := e.pathID(w, r)
	if !ok {
		return
	}
	item, err := e.controller.Activate(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		e.fail(w, "activate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (e *Endpoint[T]) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := e.pathID(w, r)
	if !ok {
		return
	}
	item, err := e.controller.Deactivate(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		e.fail(w, "deactivate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (e *Endpoint[T]) fail(w http.ResponseWriter, op string, err error) {
	e.logger.Error(op+" "+e.controller.Module(), slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (e *Endpoint[T]) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrValidation)
		return 0, false
	}
	return id, true
}
