package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/platform/httpx"
)

// Handler exposes user endpoints through the generic resource endpoint.
type Handler struct {
	endpoint *lifecycle.Endpoint[*User]
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, controller *lifecycle.Controller[*User]) *Handler {
	validate := validator.New()
	bind := func(r *http.Request, id int64) (*User, error) {
		var req userRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return nil, err
		}
		if err := validate.Struct(req); err != nil {
			return nil, err
		}
		return &User{
			ID:           id,
			Email:        req.Email,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			RoleID:       req.RoleID,
			PasswordHash: req.Password,
		}, nil
	}
	return &Handler{endpoint: lifecycle.NewEndpoint(logger, controller, bind)}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	h.endpoint.MountRoutes(r)
}

type userRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"max=30"`
	RoleID    *int64 `json:"role_id,omitempty" validate:"omitempty,gt=0"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8"`
}
