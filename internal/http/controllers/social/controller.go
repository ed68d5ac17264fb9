// Package social expone el inicio y el callback de los flujos OAuth
// federados, incluido el modo vinculación.
package social

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/linguala/linguala/internal/auth"
	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/http/dto"
	httperrors "github.com/linguala/linguala/internal/http/errors"
	"github.com/linguala/linguala/internal/http/helpers"
	"github.com/linguala/linguala/internal/http/middlewares"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/observability/logger"
)

// providerIDs traduce el segmento de URL al identificador canónico.
var providerIDs = map[string]string{
	"google":   types.ProviderGoogle,
	"facebook": types.ProviderFacebook,
	"github":   types.ProviderGitHub,
}

// Controller maneja /v1/auth/social.
type Controller struct {
	svc    *authsvc.Service
	authMW middlewares.Middleware
}

// New crea el controller. authMW protege el inicio de vinculaciones.
func New(svc *authsvc.Service, authMW middlewares.Middleware) *Controller {
	return &Controller{svc: svc, authMW: authMW}
}

// Register monta las rutas del controller.
func (c *Controller) Register(r chi.Router) {
	r.Get("/{provider}/start", c.Start)
	r.Get("/callback", c.Callback)

	r.Group(func(r chi.Router) {
		r.Use(c.authMW)
		r.Post("/{provider}/link", c.StartLink)
	})
}

// Start maneja GET /v1/auth/social/{provider}/start. Inicia un flujo de
// acceso y devuelve la URL de consentimiento del provider.
func (c *Controller) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	providerID, ok := providerIDs[chi.URLParam(r, "provider")]
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)
		return
	}

	start, err := c.svc.StartSocial(ctx, providerID, idp.ModeSignIn, "")
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SocialStartResponse{
		FlowID:  start.FlowID,
		AuthURL: start.AuthURL,
		State:   start.State,
	})
}

// StartLink maneja POST /v1/auth/social/{provider}/link. Inicia un flujo
// de vinculación sobre la cuenta de la sesión.
func (c *Controller) StartLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := middlewares.GetSession(ctx)
	if sess == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	providerID, ok := providerIDs[chi.URLParam(r, "provider")]
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)
		return
	}

	start, err := c.svc.StartSocial(ctx, providerID, idp.ModeLink, sess.UID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SocialStartResponse{
		FlowID:  start.FlowID,
		AuthURL: start.AuthURL,
		State:   start.State,
	})
}

// Callback maneja GET /v1/auth/social/callback. Tres desenlaces: sesión
// emitida, provider vinculado, o conflicto de cuenta con flujo de
// reconciliación abierto (409).
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("social.Callback"))

	q := r.URL.Query()

	// El provider reporta el error por query param; se normaliza acá,
	// nunca en los servicios.
	if oauthErr := q.Get("error"); oauthErr != "" {
		e := idp.NormalizeCallbackError(q.Get("provider"), oauthErr, q.Get("error_description"))
		log.Warn("callback con error del provider", logger.Err(e))
		httperrors.WriteError(w, e)
		return
	}

	state, code := q.Get("state"), q.Get("code")
	if state == "" || code == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("state y code son requeridos"))
		return
	}

	out, err := c.svc.CompleteSocial(ctx, state, code, r.UserAgent())
	if err != nil {
		log.Warn("callback rechazado", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	switch {
	case out.Conflict != nil:
		f := out.Conflict
		helpers.WriteJSON(w, http.StatusConflict, dto.ConflictResponse{
			Code:     "ACCOUNT_CONFLICT",
			Message:  "Ya existe una cuenta con este correo. Inicie sesión con uno de los métodos registrados para vincular el nuevo.",
			FlowID:   f.ID,
			Email:    f.Email,
			Provider: f.Provider,
			Methods:  f.Methods,
		})
	case out.Linked != nil:
		helpers.WriteJSON(w, http.StatusOK, dto.LinkedResponse{
			Provider: out.LinkedProvider,
			User:     dto.NewUserResponse(out.Linked),
		})
	default:
		helpers.WriteJSON(w, http.StatusOK, dto.SessionResponse{
			Token:     out.Session.Token,
			TokenType: "Bearer",
			ExpiresAt: out.Session.ExpiresAt,
			Provider:  out.Session.Provider,
			IsNewUser: out.Session.IsNewUser,
			User:      dto.NewUserResponse(out.Session.User),
		})
	}
}
