// Package store construye el Repository concreto según configuración.
package store

import (
	"context"
	"fmt"

	"github.com/linguala/linguala/internal/store/core"
	"github.com/linguala/linguala/internal/store/memory"
	"github.com/linguala/linguala/internal/store/mongo"
	"github.com/linguala/linguala/internal/store/pg"
)

// Config selecciona y configura el backend del document store.
type Config struct {
	Driver string // "mongo" | "postgres" | "memory"

	Mongo struct {
		URI      string
		Database string
	}
	Postgres struct {
		DSN string
	}
}

// New crea el Repository del driver configurado.
func New(ctx context.Context, cfg Config) (core.Repository, error) {
	switch cfg.Driver {
	case "mongo":
		return mongo.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	case "postgres", "pg":
		return pg.New(ctx, cfg.Postgres.DSN)
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
