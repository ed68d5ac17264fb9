// Package reconcile expone los flujos de resolución de conflictos de
// identidad: consultar, resolver con password y abandonar.
package reconcile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/linguala/linguala/internal/auth"
	"github.com/linguala/linguala/internal/http/dto"
	httperrors "github.com/linguala/linguala/internal/http/errors"
	"github.com/linguala/linguala/internal/http/helpers"
	"github.com/linguala/linguala/internal/observability/logger"
	reconcilesvc "github.com/linguala/linguala/internal/reconcile"
)

// Controller maneja /v1/reconcile.
type Controller struct {
	auth *authsvc.Service
	svc  *reconcilesvc.Service
}

// New crea el controller.
func New(auth *authsvc.Service, svc *reconcilesvc.Service) *Controller {
	return &Controller{auth: auth, svc: svc}
}

// Register monta las rutas del controller.
func (c *Controller) Register(r chi.Router) {
	r.Get("/flows/{id}", c.GetFlow)
	r.Post("/flows/{id}/resolve", c.Resolve)
	r.Post("/flows/{id}/abandon", c.Abandon)
}

// GetFlow maneja GET /v1/reconcile/flows/{id}.
func (c *Controller) GetFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := c.svc.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, flowResponse(f))
}

// Resolve maneja POST /v1/reconcile/flows/{id}/resolve. La resolución
// exitosa vincula la credencial pendiente y emite la sesión.
func (c *Controller) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("reconcile.Resolve"))

	flowID := chi.URLParam(r, "id")

	var req dto.ResolveRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("password es requerido"))
		return
	}

	sess, err := c.auth.ResolveConflict(ctx, flowID, req.Password)
	if err != nil {
		log.Warn("resolución rechazada", logger.FlowID(flowID), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SessionResponse{
		Token:     sess.Token,
		TokenType: "Bearer",
		ExpiresAt: sess.ExpiresAt,
		Provider:  sess.Provider,
		User:      dto.NewUserResponse(sess.User),
	})
}

// Abandon maneja POST /v1/reconcile/flows/{id}/abandon. No queda rastro:
// la credencial pendiente expira sola.
func (c *Controller) Abandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := c.svc.Abandon(ctx, chi.URLParam(r, "id")); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func flowResponse(f *reconcilesvc.Flow) dto.FlowResponse {
	methods := f.Methods
	if methods == nil {
		methods = []string{}
	}
	return dto.FlowResponse{
		ID:        f.ID,
		State:     string(f.State),
		Email:     f.Email,
		Provider:  f.Provider,
		Methods:   methods,
		Attempts:  f.Attempts,
		CreatedAt: f.CreatedAt,
	}
}
