package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/platform/httpx"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	// A failed attempt leaves no bitácora entry; only transitions of an
	// authenticated identity are recorded.
	cred, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	sess.SetUser(strconv.FormatInt(cred.UserID, 10))

	// Cookie clients need the token for every later mutation; it travels in
	// the body and the header so either kind of client can pick it up.
	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set(shared.CSRFHeader, csrfToken)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	h.service.RegisterLogin(r.Context(), cred, sess.ID, expiresAt, shared.OriginFromContext(r.Context()), r.UserAgent())

	httpx.JSON(w, http.StatusOK, loginResponse{UserID: cred.UserID, Email: cred.Email, SessionID: sess.ID, CSRFToken: csrfToken})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	userID, _ := strconv.ParseInt(sess.User(), 10, 64)
	email := ""
	if p := authz.PrincipalFromContext(r.Context()); p != nil {
		email = p.Email
	}
	h.service.RegisterLogout(r.Context(), userID, email, sess.ID, shared.OriginFromContext(r.Context()))
	h.sessionManager.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}
