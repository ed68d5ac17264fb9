// Package auth expone los endpoints de autenticación por password y la
// gestión de la sesión propia.
package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/linguala/linguala/internal/auth"
	"github.com/linguala/linguala/internal/http/dto"
	httperrors "github.com/linguala/linguala/internal/http/errors"
	"github.com/linguala/linguala/internal/http/helpers"
	"github.com/linguala/linguala/internal/http/middlewares"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/users"
)

// Controller maneja /v1/auth.
type Controller struct {
	svc    *authsvc.Service
	users  *users.Service
	authMW middlewares.Middleware
}

// New crea el controller. authMW protege los endpoints de sesión propia.
func New(svc *authsvc.Service, usersSvc *users.Service, authMW middlewares.Middleware) *Controller {
	return &Controller{svc: svc, users: usersSvc, authMW: authMW}
}

// Register monta las rutas del controller.
func (c *Controller) Register(r chi.Router) {
	r.Post("/login", c.Login)
	r.Post("/register", c.RegisterAccount)
	r.Get("/methods", c.Methods)

	r.Group(func(r chi.Router) {
		r.Use(c.authMW)
		r.Get("/me", c.Me)
		r.Post("/logout", c.Logout)
		r.Delete("/me/providers/{provider}", c.Unlink)
	})
}

// Login maneja POST /v1/auth/login.
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email y password son requeridos"))
		return
	}

	sess, err := c.svc.LoginPassword(ctx, req.Email, req.Password, r.UserAgent())
	if err != nil {
		log.Warn("login rechazado", logger.Email(req.Email), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, sessionResponse(sess))
}

// RegisterAccount maneja POST /v1/auth/register.
func (c *Controller) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.Register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email y password son requeridos"))
		return
	}

	sess, err := c.svc.Register(ctx, req.Email, req.Password, req.FirstName, req.LastName, r.UserAgent())
	if err != nil {
		log.Warn("registro rechazado", logger.Email(req.Email), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, sessionResponse(sess))
}

// Methods maneja GET /v1/auth/methods?email=...
// Lista vacía si el email no existe; no revela si la cuenta existe.
func (c *Controller) Methods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("email")))
	if email == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("email es requerido"))
		return
	}

	methods, err := c.svc.Methods(ctx, email)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if methods == nil {
		methods = []string{}
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MethodsResponse{Email: email, Methods: methods})
}

// Me maneja GET /v1/auth/me.
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := middlewares.GetSession(ctx)
	if sess == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	u, err := c.users.Get(ctx, sess.UID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// Logout maneja POST /v1/auth/logout. Las sesiones son stateless; el
// cliente descarta el token y el servidor solo confirma.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

// Unlink maneja DELETE /v1/auth/me/providers/{provider}.
func (c *Controller) Unlink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.Unlink"))

	sess := middlewares.GetSession(ctx)
	if sess == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	providerID := chi.URLParam(r, "provider")

	u, err := c.svc.Unlink(ctx, sess.UID, providerID)
	if err != nil {
		log.Warn("desvinculación rechazada", logger.UserID(sess.UID), logger.Provider(providerID), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

func sessionResponse(s *authsvc.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresAt: s.ExpiresAt,
		Provider:  s.Provider,
		IsNewUser: s.IsNewUser,
		User:      dto.NewUserResponse(s.User),
	}
}
