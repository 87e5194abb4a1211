package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/platform/httpx"
)

// Handler exposes product and brand endpoints.
type Handler struct {
	products *lifecycle.Endpoint[*Product]
	brands   *lifecycle.Endpoint[*Brand]
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, products *lifecycle.Controller[*Product], brands *lifecycle.Controller[*Brand]) *Handler {
	validate := validator.New()
	bindProduct := func(r *http.Request, id int64) (*Product, error) {
		var req productRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		if err := validate.Struct(req); err != nil {
			return nil, err
		}
		return &Product{ID: id, Name: req.Name, Description: req.Description}, nil
	}
	bindBrand := func(r *http.Request, id int64) (*Brand, error) {
		var req brandRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		if err := validate.Struct(req); err != nil {
			return nil, err
		}
		return &Brand{ID: id, Name: req.Name}, nil
	}
	return &Handler{
		products: lifecycle.NewEndpoint(logger, products, bindProduct),
		brands:   lifecycle.NewEndpoint(logger, brands, bindBrand),
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/productos", h.products.MountRoutes)
	r.Route("/marcas", h.brands.MountRoutes)
}

type productRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

type brandRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
