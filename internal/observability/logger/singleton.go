package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init construye el singleton. Idempotente: solo la primera llamada
// tiene efecto; app.New la invoca antes de armar cualquier dependencia.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el singleton. Sin Init previo cae al modo dev con nivel
// info, que es lo que quieren los tests.
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Sync drena los buffers pendientes antes de salir.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
