package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Mem es el backend in-process sobre go-cache.
type Mem struct {
	mu sync.Mutex // serializa GetDel frente a Get/Set concurrentes
	c  *gocache.Cache
}

// NewMemory crea un cache en memoria con el TTL default dado.
func NewMemory(defaultTTL time.Duration) *Mem {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Mem{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Mem) Get(ctx context.Context, k string) ([]byte, error) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, ErrNotFound
	}
	b, _ := v.([]byte)
	return b, nil
}

func (m *Mem) GetDel(ctx context.Context, k string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(k)
	if !ok {
		return nil, ErrNotFound
	}
	m.c.Delete(k)
	b, _ := v.([]byte)
	return b, nil
}

func (m *Mem) Set(ctx context.Context, k string, v []byte, ttl time.Duration) error {
	m.c.Set(k, v, ttl)
	return nil
}

func (m *Mem) Delete(ctx context.Context, k string) error {
	m.c.Delete(k)
	return nil
}

func (m *Mem) Ping(ctx context.Context) error { return nil }
func (m *Mem) Close() error                   { return nil }
