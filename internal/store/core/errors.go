package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalid     = errors.New("invalid")
	ErrUnavailable = errors.New("store unavailable")
)

// Unavailable envuelve un error de transporte/conexión como ErrUnavailable.
// Los adapters lo usan para que las capas superiores distingan "el store no
// responde" (no fatal post-auth) de errores de datos.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
