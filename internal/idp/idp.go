// Package idp es el gateway de identidad: la única frontera del sistema
// que habla con los identity providers (password y federados). Normaliza
// todos los fallos a la taxonomía de errors.go y entrega perfiles listos
// para el sincronizador.
package idp

import (
	"context"
	"time"
)

// Profile es el perfil que el provider reporta tras autenticar.
type Profile struct {
	// UID es el identificador estable de la cuenta gestionada. Igual
	// entre providers vinculados a la misma cuenta.
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	// ProviderID identifica el método autenticado ("password",
	// "google.com", "facebook.com", "github.com").
	ProviderID string `json:"providerId"`
	// Username es el login del provider cuando existe (GitHub).
	Username string `json:"username,omitempty"`
	// EmailVerified lo reporta el provider; informativo.
	EmailVerified bool `json:"emailVerified,omitempty"`
}

// Credential es una credencial federada capturada durante un intento de
// acceso fallido por conflicto. Es de un solo uso: consumirla la destruye.
type Credential struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"providerId"`
	// Subject es el identificador del usuario dentro del provider.
	Subject    string    `json:"subject"`
	Email      string    `json:"email"`
	// AccessToken (o IDToken) es lo que el provider emitió; se rejuega
	// al vincular.
	AccessToken string    `json:"accessToken,omitempty"`
	IDToken     string    `json:"idToken,omitempty"`
	Profile     Profile   `json:"profile"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// Result es el resultado de una autenticación exitosa.
type Result struct {
	Profile Profile
	// IsNewUser indica que el provider creó la cuenta en este intento.
	IsNewUser bool
	// IsLink indica que el intento era una vinculación, no un acceso.
	IsLink bool
}

// FlowStart describe un flujo federado recién iniciado. El caller
// redirige al usuario a AuthURL; State viaja firmado y vuelve en el
// callback.
type FlowStart struct {
	FlowID  string
	AuthURL string
	State   string
}

// FlowMode distingue acceso de vinculación dentro de un flujo federado.
type FlowMode string

const (
	ModeSignIn FlowMode = "signin"
	ModeLink   FlowMode = "link"
)

// Gateway es la superficie completa del identity provider hacia el resto
// del sistema.
type Gateway interface {
	// SignInWithPassword autentica email+password.
	SignInWithPassword(ctx context.Context, email, password string) (*Result, error)

	// SignUp registra una cuenta password nueva. KindAccountConflict si
	// el email ya existe con cualquier método.
	SignUp(ctx context.Context, email, password, firstName, lastName string) (*Result, error)

	// StartProviderFlow inicia un flujo federado (signin o link). En
	// modo link, uid identifica la cuenta ya autenticada que vincula.
	StartProviderFlow(ctx context.Context, providerID string, mode FlowMode, uid string) (*FlowStart, error)

	// CompleteProviderFlow consume el callback. En un conflicto de
	// cuenta devuelve KindAccountConflict con la credencial pendiente
	// ya almacenada bajo Error.CredentialID.
	CompleteProviderFlow(ctx context.Context, state, code string) (*Result, error)

	// LinkCredential consume una credencial pendiente (un solo uso) y
	// la vincula a la cuenta uid ya reautenticada.
	LinkCredential(ctx context.Context, uid, credentialID string) (*Result, error)

	// FetchSignInMethods lista los métodos registrados para un email.
	// Lista vacía si el email no existe; eso no es un error.
	FetchSignInMethods(ctx context.Context, email string) ([]string, error)

	// Unlink desvincula un provider de la cuenta. No permite dejar la
	// cuenta sin métodos.
	Unlink(ctx context.Context, uid, providerID string) error
}

// AccountAPI es el backend de cuentas gestionadas (el servicio que
// custodia passwords y vinculaciones). Dos implementaciones: el cliente
// REST de producción y el provider dev en proceso.
type AccountAPI interface {
	// SignIn verifica email+password y devuelve el perfil.
	SignIn(ctx context.Context, email, password string) (*Profile, error)

	// SignUp crea la cuenta password.
	SignUp(ctx context.Context, email, password, displayName string) (*Profile, error)

	// SignInWithIDP canjea una aserción federada (token del provider
	// externo) por un perfil de la cuenta gestionada, creándola si no
	// existe. Con link=true exige que uid sea la cuenta destino.
	SignInWithIDP(ctx context.Context, assertion IDPAssertion) (*Profile, bool, error)

	// SignInMethods lista los providers registrados para email.
	SignInMethods(ctx context.Context, email string) ([]string, error)

	// Unlink quita providerID de la cuenta uid.
	Unlink(ctx context.Context, uid, providerID string) (*Profile, error)
}

// IDPAssertion es el material federado que AccountAPI canjea.
type IDPAssertion struct {
	ProviderID  string
	Subject     string
	AccessToken string
	IDToken     string
	Email       string
	DisplayName string
	PhotoURL    string
	Username    string
	// LinkUID, si no está vacío, convierte el canje en vinculación a
	// esa cuenta.
	LinkUID string
}

// SocialClient es un cliente OAuth de un provider federado concreto.
type SocialClient interface {
	// ProviderID devuelve el identificador canónico ("google.com"...).
	ProviderID() string
	// AuthURL arma la URL de consentimiento para el state dado.
	AuthURL(ctx context.Context, state, nonce string) (string, error)
	// Exchange canjea el code del callback por el perfil externo y los
	// tokens crudos del provider. nonce valida el id_token cuando el
	// provider lo soporta.
	Exchange(ctx context.Context, code, nonce string) (*SocialIdentity, error)
}

// SocialIdentity es lo que un provider federado reporta tras el canje.
type SocialIdentity struct {
	ProviderID  string
	Subject     string
	Email       string
	DisplayName string
	PhotoURL    string
	Username    string
	AccessToken string
	IDToken     string
	EmailVerified bool
}
