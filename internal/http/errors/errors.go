// Package errors define el sobre de error de la API y el mapeo desde los
// errores de dominio a respuestas HTTP. Ninguna otra capa escribe errores
// al cliente.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/linguala/linguala/internal/auth"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/jwt"
	"github.com/linguala/linguala/internal/lessons"
	"github.com/linguala/linguala/internal/reconcile"
	"github.com/linguala/linguala/internal/store/core"
	"github.com/linguala/linguala/internal/users"
)

// errorResponse estructura interna para la serialización JSON.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// FromError intenta convertir un error genérico en un AppError. Si no es
// un AppError, lo mapea desde el dominio; el fallback es un error interno
// que conserva la causa para los logs.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	if appErr := fromDomain(err); appErr != nil {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// fromDomain mapea los errores de los servicios a su respuesta HTTP.
// Devuelve nil si el error no pertenece a ningún dominio conocido.
func fromDomain(err error) *AppError {
	// Taxonomía del gateway de identidad.
	if e := idp.AsError(err); e != nil {
		switch e.Kind {
		case idp.KindValidation:
			var pe *idp.ProviderError
			if stderrors.As(err, &pe) {
				switch pe.Code {
				case idp.CodeLastSignInMethod:
					return ErrLastSignInMethod.WithCause(err)
				case idp.CodeNoSuchProvider:
					return ErrNotFound.WithDetail("el provider no está vinculado a la cuenta").WithCause(err)
				}
			}
			return ErrBadRequest.WithDetail(e.Detail).WithCause(err)
		case idp.KindInvalidCredential:
			return ErrInvalidCredentials.WithCause(err)
		case idp.KindAccountConflict:
			return ErrAccountConflict.WithCause(err)
		case idp.KindAlreadyLinked:
			return ErrProviderAlreadyLinked.WithCause(err)
		case idp.KindCredentialInUse:
			return ErrCredentialInUse.WithCause(err)
		case idp.KindUserCancelled:
			return ErrAccessCancelled.WithCause(err)
		case idp.KindPopupBlocked:
			return ErrPopupBlocked.WithCause(err)
		case idp.KindNetwork:
			return ErrProviderUnavailable.WithCause(err)
		case idp.KindStoreUnavailable:
			return ErrServiceUnavailable.WithCause(err)
		}
	}

	switch {
	// Reconciliación.
	case stderrors.Is(err, reconcile.ErrFlowNotFound):
		return ErrFlowNotFound.WithCause(err)
	case stderrors.Is(err, reconcile.ErrFlowState):
		return ErrFlowState.WithCause(err)
	case stderrors.Is(err, reconcile.ErrTooManyAttempts):
		return ErrTooManyAttempts.WithCause(err)
	case stderrors.Is(err, reconcile.ErrNotAConflict):
		return ErrBadRequest.WithCause(err)

	// Estado administrativo.
	case stderrors.Is(err, auth.ErrAccountDisabled):
		return ErrAccountSuspended.WithCause(err)
	case stderrors.Is(err, auth.ErrWeakPassword):
		return ErrPasswordTooWeak.WithDetail(err.Error())

	// Tokens de sesión.
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired.WithCause(err)
	case stderrors.Is(err, jwt.ErrTokenInvalid):
		return ErrTokenInvalid.WithCause(err)

	// Validaciones de los CRUD.
	case stderrors.Is(err, lessons.ErrTitleRequired),
		stderrors.Is(err, lessons.ErrInvalidLanguage),
		stderrors.Is(err, lessons.ErrInvalidLevel),
		stderrors.Is(err, lessons.ErrInvalidStatus),
		stderrors.Is(err, users.ErrInvalidEmail),
		stderrors.Is(err, users.ErrInvalidRole),
		stderrors.Is(err, users.ErrInvalidStatus):
		return ErrUnprocessableEntity.WithDetail(err.Error()).WithCause(err)

	// Store.
	case stderrors.Is(err, core.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case stderrors.Is(err, core.ErrConflict):
		return ErrConflict.WithCause(err)
	case stderrors.Is(err, core.ErrUnavailable):
		return ErrServiceUnavailable.WithCause(err)
	}
	return nil
}
