package branches

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/platform/httpx"
)

// Handler exposes branch endpoints through the generic resource endpoint.
type Handler struct {
	endpoint *lifecycle.Endpoint[*Branch]
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, controller *lifecycle.Controller[*Branch]) *Handler {
	validate := validator.New()
	bind := func(r *http.Request, id int64) (*Branch, error) {
		var req branchRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		if err := validate.Struct(req); err != nil {
			return nil, err
		}
		return &Branch{ID: id, Name: req.Name, Address: req.Address}, nil
	}
	return &Handler{endpoint: lifecycle.NewEndpoint(logger, controller, bind)}
}

// MountRoutes registers branch routes.
func (h *Handler) MountRoutes(r chi.Router) {
	h.endpoint.MountRoutes(r)
}

type branchRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"max=200"`
}
