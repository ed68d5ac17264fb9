package cache

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Redis es el backend distribuido sobre go-redis.
type Redis struct {
	c          *rdb.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedis crea un cliente Redis según la configuración.
func NewRedis(cfg Config) (*Redis, error) {
	c := rdb.NewClient(&rdb.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{c: c, prefix: cfg.Prefix, defaultTTL: ttl}, nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, k string) ([]byte, error) {
	b, err := r.c.Get(ctx, r.key(k)).Bytes()
	if err == rdb.Nil {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) GetDel(ctx context.Context, k string) ([]byte, error) {
	b, err := r.c.GetDel(ctx, r.key(k)).Bytes()
	if err == rdb.Nil {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, k string, v []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	return r.c.Set(ctx, r.key(k), v, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, k string) error {
	return r.c.Del(ctx, r.key(k)).Err()
}

func (r *Redis) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.c.Close() }
