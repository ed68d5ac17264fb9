// Package users expone el CRUD administrativo de perfiles.
package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linguala/linguala/internal/http/dto"
	httperrors "github.com/linguala/linguala/internal/http/errors"
	"github.com/linguala/linguala/internal/http/helpers"
	"github.com/linguala/linguala/internal/observability/logger"
	userssvc "github.com/linguala/linguala/internal/users"
)

// Controller maneja /v1/admin/users. El router aplica sesión + rol admin
// a toda la superficie.
type Controller struct {
	svc *userssvc.Service
}

// New crea el controller.
func New(svc *userssvc.Service) *Controller {
	return &Controller{svc: svc}
}

// Register monta las rutas del controller.
func (c *Controller) Register(r chi.Router) {
	r.Get("/", c.List)
	r.Post("/", c.Create)
	r.Get("/{uid}", c.Get)
	r.Patch("/{uid}", c.Update)
	r.Post("/{uid}/disable", c.Disable)
	r.Delete("/{uid}", c.Delete)
}

// List maneja GET /v1/admin/users.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	us, err := c.svc.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	out := make([]dto.UserResponse, 0, len(us))
	for i := range us {
		out = append(out, dto.NewUserResponse(&us[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.UserListResponse{Users: out, Total: len(out)})
}

// Create maneja POST /v1/admin/users.
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("users.Create"))

	var req dto.UserCreateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	u, err := c.svc.Create(ctx, userssvc.CreateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		log.Warn("alta administrativa rechazada", logger.Email(req.Email), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewUserResponse(u))
}

// Get maneja GET /v1/admin/users/{uid}.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	u, err := c.svc.Get(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// Update maneja PATCH /v1/admin/users/{uid}.
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("users.Update"))

	var req dto.UserUpdateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	u, err := c.svc.Update(ctx, chi.URLParam(r, "uid"), userssvc.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
		Status:    req.Status,
	})
	if err != nil {
		log.Warn("edición administrativa rechazada", logger.UserID(chi.URLParam(r, "uid")), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// Disable maneja POST /v1/admin/users/{uid}/disable. La cuenta queda
// bloqueada para iniciar sesión aunque el identity provider la acepte.
func (c *Controller) Disable(w http.ResponseWriter, r *http.Request) {
	u, err := c.svc.Disable(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// Delete maneja DELETE /v1/admin/users/{uid}.
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Delete(r.Context(), chi.URLParam(r, "uid")); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
