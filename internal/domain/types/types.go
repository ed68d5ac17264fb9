package types

import "time"

// Proveedores de autenticación soportados. Los IDs siguen el formato del
// identity provider ("password" para email/contraseña, dominio para federados).
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
	ProviderFacebook = "facebook.com"
	ProviderGitHub   = "github.com"
)

// Roles y estados a nivel de aplicación. Los administra el CRUD de usuarios,
// nunca el identity provider.
const (
	RoleUser  = "usuario"
	RoleAdmin = "admin"

	StatusActive   = "activo"
	StatusDisabled = "deshabilitado"
)

// UserIdentity es la proyección desnormalizada del usuario en el document
// store. El registro canónico de autenticación (hash de password, tokens de
// provider) vive en el identity provider; aquí solo guardamos el perfil.
type UserIdentity struct {
	UID         string `json:"uid" bson:"_id"`
	Email       string `json:"email" bson:"email"` // siempre en minúsculas
	DisplayName string `json:"display_name" bson:"displayName"`
	FirstName   string `json:"first_name" bson:"firstName"`
	LastName    string `json:"last_name" bson:"lastName"`
	PhotoURL    string `json:"photo_url,omitempty" bson:"photoURL"`

	// Providers crece de forma monótona vía vinculación; nunca se reduce
	// automáticamente. La unión se hace con primitivas atómicas del store.
	Providers []string `json:"providers" bson:"providers"`

	// GitHubUsername se captura solo en sign-in/link por GitHub.
	GitHubUsername string `json:"github_username,omitempty" bson:"githubUsername,omitempty"`

	Role   string `json:"role" bson:"role"`
	Status string `json:"status" bson:"status"`

	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	LastLogin time.Time `json:"last_login" bson:"lastLogin"`
}

// HasProvider reporta si el provider ya está vinculado a esta identidad.
func (u *UserIdentity) HasProvider(providerID string) bool {
	for _, p := range u.Providers {
		if p == providerID {
			return true
		}
	}
	return false
}

// IsDisabled reporta si el usuario está deshabilitado por un administrador.
func (u *UserIdentity) IsDisabled() bool {
	return u.Status == StatusDisabled
}

// SessionEvent es un registro append-only de una autenticación o vinculación.
// Una vez escrito no se muta ni se borra desde este núcleo.
type SessionEvent struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"userId"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"display_name" bson:"displayName"`
	PhotoURL    string    `json:"photo_url,omitempty" bson:"photoURL,omitempty"`
	Provider    string    `json:"provider" bson:"provider"`
	LoginTime   time.Time `json:"login_time" bson:"loginTime"`
	UserAgent   string    `json:"user_agent,omitempty" bson:"userAgent,omitempty"`

	// IsLinkAction distingue "inició sesión" de "vinculó un provider nuevo
	// a una sesión existente".
	IsLinkAction bool `json:"is_link_action" bson:"isLinkAction"`
}

// Idiomas y niveles disponibles para lecciones.
const (
	LevelBeginner     = "principiante"
	LevelIntermediate = "intermedio"
	LevelAdvanced     = "avanzado"
)

// Estados de una lección.
const (
	LessonPending    = "pendiente"
	LessonInProgress = "en_progreso"
	LessonCompleted  = "completada"
)

// Languages lista los idiomas que acepta el CRUD de lecciones.
var Languages = []string{
	"ingles", "frances", "aleman", "italiano", "portugues",
	"chino", "japones", "coreano", "ruso", "arabe",
}

// Lesson es una lección del catálogo.
type Lesson struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Status      string    `json:"status" bson:"status"` // pendiente | en_progreso | completada
	Language    string    `json:"language" bson:"language"`
	Level       string    `json:"level" bson:"level"`
	CreatedAt   time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updatedAt"`
}

// ValidLanguage reporta si el idioma está dentro del catálogo soportado.
func ValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ValidLevel reporta si el nivel es uno de los tres soportados.
func ValidLevel(level string) bool {
	return level == LevelBeginner || level == LevelIntermediate || level == LevelAdvanced
}

// ValidLessonStatus reporta si el estado es uno de los soportados.
func ValidLessonStatus(status string) bool {
	return status == LessonPending || status == LessonInProgress || status == LessonCompleted
}
