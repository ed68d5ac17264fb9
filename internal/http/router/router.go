// Package router arma el árbol de rutas completo de la API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authsvc "github.com/linguala/linguala/internal/auth"
	"github.com/linguala/linguala/internal/cache"
	authctrl "github.com/linguala/linguala/internal/http/controllers/auth"
	healthctrl "github.com/linguala/linguala/internal/http/controllers/health"
	lessonsctrl "github.com/linguala/linguala/internal/http/controllers/lessons"
	reconcilectrl "github.com/linguala/linguala/internal/http/controllers/reconcile"
	sessionsctrl "github.com/linguala/linguala/internal/http/controllers/sessions"
	socialctrl "github.com/linguala/linguala/internal/http/controllers/social"
	usersctrl "github.com/linguala/linguala/internal/http/controllers/users"
	httperrors "github.com/linguala/linguala/internal/http/errors"
	"github.com/linguala/linguala/internal/http/middlewares"
	"github.com/linguala/linguala/internal/jwt"
	lessonssvc "github.com/linguala/linguala/internal/lessons"
	"github.com/linguala/linguala/internal/rate"
	reconcilesvc "github.com/linguala/linguala/internal/reconcile"
	"github.com/linguala/linguala/internal/sessionlog"
	"github.com/linguala/linguala/internal/store/core"
	userssvc "github.com/linguala/linguala/internal/users"
)

// Deps contiene todo lo que el router necesita para armar la API.
type Deps struct {
	Auth      *authsvc.Service
	Reconcile *reconcilesvc.Service
	Lessons   *lessonssvc.Service
	Users     *userssvc.Service
	Recorder  *sessionlog.Recorder
	Issuer    *jwt.Issuer
	Repo      core.Repository
	Cache     cache.Client

	// AuthLimiter protege login, registro y resolución de conflictos.
	// nil deshabilita el rate limiting.
	AuthLimiter rate.Limiter

	// CORSOrigins lista los orígenes permitidos; vacío deshabilita CORS.
	CORSOrigins []string

	Version string
}

// New arma el http.Handler completo de la API.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	base := []middlewares.Middleware{
		middlewares.WithRequestID(),
		middlewares.WithRecover(),
		middlewares.WithLogging(),
		middlewares.WithSecurityHeaders(),
	}
	if len(d.CORSOrigins) > 0 {
		base = append(base, middlewares.WithCORS(d.CORSOrigins))
	}
	for _, mw := range base {
		r.Use(mw)
	}

	authMW := middlewares.WithAuth(d.Issuer)
	rateMW := middlewares.WithRateLimit(middlewares.RateLimitConfig{Limiter: d.AuthLimiter})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Salud y métricas, fuera del versionado.
	healthctrl.New(d.Repo, d.Cache, d.Version).Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Los endpoints que emiten tokens nunca se cachean y llevan
		// rate limiting por IP.
		r.Route("/auth", func(r chi.Router) {
			r.Use(middlewares.WithNoStore())
			r.Use(rateMW)
			authctrl.New(d.Auth, d.Users, authMW).Register(r)
			r.Route("/social", func(r chi.Router) {
				socialctrl.New(d.Auth, authMW).Register(r)
			})
		})

		r.Route("/reconcile", func(r chi.Router) {
			r.Use(middlewares.WithNoStore())
			r.Use(rateMW)
			reconcilectrl.New(d.Auth, d.Reconcile).Register(r)
		})

		r.Route("/lessons", func(r chi.Router) {
			r.Use(authMW)
			lessonsctrl.New(d.Lessons).Register(r)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Use(authMW)
			sessionsctrl.New(d.Recorder).Register(r)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(authMW, middlewares.WithAdmin())
			usersctrl.New(d.Users).Register(r)
		})
	})

	return r
}
