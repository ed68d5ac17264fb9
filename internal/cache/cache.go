// Package cache provee un cache clave/valor con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
//
// El gateway de identidad lo usa para flujos sociales en curso y credenciales
// pendientes de un solo uso; el rate limiter usa su propio contador en Redis.
package cache

import (
	"context"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetDel obtiene y elimina un valor en un solo paso. Retorna ErrNotFound
	// si no existe. Es la primitiva para credenciales de un solo uso.
	GetDel(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor con TTL. Si ttl es 0 usa el default del backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina una key. No es error si no existe.
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver     string // "memory" | "redis"
	Addr       string
	Password   string
	DB         int
	Prefix     string // Prefijo para todas las keys
	DefaultTTL time.Duration
}

// Errores de cache.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (e errNotFound) Error() string { return "cache: key not found" }

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.DefaultTTL), nil
	default:
		return NewMemory(cfg.DefaultTTL), nil
	}
}
