package core

import (
	"context"

	"github.com/linguala/linguala/internal/domain/types"
)

// UserUpdate son los campos que el CRUD administrativo puede modificar.
// nil = sin cambio. Providers nunca se modifica por esta vía.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *string
	Status    *string
}

// LessonUpdate son los campos editables de una lección. nil = sin cambio.
type LessonUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Language    *string
	Level       *string
}

// SessionEventFilter filtra el historial de sesiones para las vistas de
// reporte. Zero value = todo, ordenado por loginTime descendente.
type SessionEventFilter struct {
	UserID    string
	Provider  string
	OnlyLinks bool
	Limit     int64
}

// Repository es el contrato del document store externo. El store se trata
// como un key-value addressable por uid con consistencia at-least-once;
// las operaciones de unión de providers deben ser atómicas en el backend
// (nunca read-modify-write del lado del cliente).
type Repository interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	// ─── Perfiles (colección "usuarios") ───

	// UpsertOnLogin crea el perfil si no existe (role/status default) o
	// hace merge si existe: unión atómica del provider, refresh de
	// lastLogin, last-write-wins en displayName/photoURL. role, status y
	// cualquier campo administrativo quedan intactos en el merge.
	UpsertOnLogin(ctx context.Context, u *types.UserIdentity, providerID string) (*types.UserIdentity, error)

	// AddProvider agrega el provider al set del perfil de forma atómica.
	// No toca lastLogin (vincular no es iniciar sesión).
	AddProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error)

	// RemoveProvider quita el provider del set del perfil de forma
	// atómica. No valida que quede al menos un método; eso lo garantiza
	// el gateway antes de llegar aquí.
	RemoveProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error)

	GetUser(ctx context.Context, uid string) (*types.UserIdentity, error)
	GetUserByEmail(ctx context.Context, email string) (*types.UserIdentity, error)
	ListUsers(ctx context.Context) ([]types.UserIdentity, error)
	CreateUser(ctx context.Context, u *types.UserIdentity) error
	UpdateUser(ctx context.Context, uid string, up UserUpdate) (*types.UserIdentity, error)
	DeleteUser(ctx context.Context, uid string) error

	// ─── Lecciones (colección "lecciones") ───

	CreateLesson(ctx context.Context, l *types.Lesson) error
	GetLesson(ctx context.Context, id string) (*types.Lesson, error)
	ListLessons(ctx context.Context) ([]types.Lesson, error)
	UpdateLesson(ctx context.Context, id string, up LessonUpdate) (*types.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error

	// ─── Historial de sesiones (colección "session_logs", append-only) ───

	AppendSessionEvent(ctx context.Context, ev *types.SessionEvent) error
	ListSessionEvents(ctx context.Context, f SessionEventFilter) ([]types.SessionEvent, error)
}
