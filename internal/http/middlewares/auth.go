package middlewares

import (
	"net/http"
	"strings"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/http/errors"
	"github.com/linguala/linguala/internal/jwt"
)

// WithAuth valida el bearer token de sesión y deja las claims en el
// contexto. Sin token o con token inválido el request no pasa.
func WithAuth(issuer *jwt.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="linguala"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}

			claims, err := issuer.Parse(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="linguala", error="invalid_token"`)
				errors.WriteError(w, err)
				return
			}

			ctx := withSession(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithAdmin exige que la sesión del contexto tenga rol admin.
// Debe encadenarse después de WithAuth.
func WithAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			if sess.Role != types.RoleAdmin {
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
