package idp

import (
	"errors"
	"fmt"
	"strings"
)

// Kind clasifica todo fallo del identity provider en una taxonomía cerrada.
// Nada por encima del gateway inspecciona códigos crudos del provider: la
// normalización ocurre una sola vez, en esta frontera.
type Kind string

const (
	// KindValidation: input malformado, detectado antes de tocar la red.
	KindValidation Kind = "validation"
	// KindUserCancelled: el usuario cerró el flujo de consentimiento.
	// Silencioso: no se muestra error.
	KindUserCancelled Kind = "user_cancelled"
	// KindPopupBlocked: el navegador bloqueó la ventana de consentimiento.
	KindPopupBlocked Kind = "popup_blocked"
	// KindNetwork: fallo de transporte; reintenta el usuario, nunca
	// automáticamente.
	KindNetwork Kind = "network"
	// KindInvalidCredential: password incorrecto (o rate limit del
	// provider, que se presenta igual a nivel de campo).
	KindInvalidCredential Kind = "invalid_credential"
	// KindAccountConflict: el email ya está registrado con otro método.
	// Dispara el flujo de reconciliación.
	KindAccountConflict Kind = "account_conflict"
	// KindAlreadyLinked: el provider ya estaba vinculado. No-op exitoso.
	KindAlreadyLinked Kind = "already_linked"
	// KindCredentialInUse: la credencial externa ya pertenece a otra
	// cuenta interna. Terminal: no se resuelve vinculando.
	KindCredentialInUse Kind = "credential_in_use"
	// KindStoreUnavailable: el document store no responde. Post-auth no
	// invalida la sesión ya establecida.
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error es el error normalizado del gateway.
type Error struct {
	Kind     Kind
	Provider string
	Email    string
	Detail   string

	// CredentialID referencia la credencial pendiente de un solo uso
	// cuando Kind es KindAccountConflict.
	CredentialID string
	// Methods lista los métodos de acceso ya registrados para Email
	// cuando Kind es KindAccountConflict.
	Methods []string

	cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("idp: ")
	b.WriteString(string(e.Kind))
	if e.Provider != "" {
		b.WriteString(" provider=" + e.Provider)
	}
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, " (%v)", e.cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// E construye un Error del kind dado.
func E(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// KindOf extrae el Kind de un error del gateway, o "" si no lo es.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reporta si err es un error del gateway con el kind dado.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsError extrae el *Error normalizado, o nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// ─── Códigos crudos del provider ───
//
// Vocabulario compartido por los backends (REST y dev). Solo este archivo
// los traduce a la taxonomía.

const (
	CodeEmailNotFound      = "EMAIL_NOT_FOUND"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeInvalidLogin       = "INVALID_LOGIN_CREDENTIALS"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeNeedConfirmation   = "NEED_CONFIRMATION"
	CodeCredentialInUse    = "CREDENTIAL_IN_USE"
	CodeProviderLinked     = "PROVIDER_ALREADY_LINKED"
	CodeUserDisabled       = "USER_DISABLED"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeNoSuchProvider     = "NO_SUCH_PROVIDER"
	CodeLastSignInMethod   = "LAST_SIGN_IN_METHOD"
)

// ProviderError es un error crudo del servicio de identidad, identificado
// por código. Los backends lo construyen; el gateway lo normaliza.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return "provider: " + e.Code
	}
	return "provider: " + e.Code + ": " + e.Message
}

// normalize traduce un error crudo de backend a la taxonomía. Los errores
// de transporte (no tipados) se tratan como KindNetwork.
func normalize(providerID, email string, err error) *Error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return &Error{Kind: KindNetwork, Provider: providerID, Email: email, cause: err}
	}

	out := &Error{Provider: providerID, Email: email, Detail: pe.Message, cause: pe}
	switch pe.Code {
	case CodeEmailNotFound, CodeInvalidPassword, CodeInvalidLogin,
		CodeUserDisabled, CodeTooManyAttempts:
		out.Kind = KindInvalidCredential
	case CodeEmailExists, CodeNeedConfirmation:
		out.Kind = KindAccountConflict
	case CodeCredentialInUse:
		out.Kind = KindCredentialInUse
	case CodeProviderLinked:
		out.Kind = KindAlreadyLinked
	case CodeNoSuchProvider, CodeLastSignInMethod:
		out.Kind = KindValidation
	default:
		out.Kind = KindNetwork
	}
	return out
}

// NormalizeCallbackError traduce el parámetro error del callback OAuth a la
// taxonomía. El controller lo invoca en vez de comparar strings del IdP.
func NormalizeCallbackError(providerID, code, description string) *Error {
	out := &Error{Provider: providerID, Detail: description}
	switch code {
	case "access_denied", "user_cancelled", "consent_required":
		out.Kind = KindUserCancelled
	case "popup_blocked", "interaction_required":
		out.Kind = KindPopupBlocked
	case "temporarily_unavailable", "server_error":
		out.Kind = KindNetwork
	default:
		out.Kind = KindNetwork
		if out.Detail == "" {
			out.Detail = code
		}
	}
	return out
}
