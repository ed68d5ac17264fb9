package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemory_GetDelSingleUse(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	if err := m.Set(ctx, "cred:1", []byte("tok"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := m.GetDel(ctx, "cred:1")
	if err != nil {
		t.Fatalf("getdel: %v", err)
	}
	if string(b) != "tok" {
		t.Fatalf("got %q", b)
	}
	// segunda lectura debe fallar: un solo uso
	if _, err := m.GetDel(ctx, "cred:1"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := m.Get(ctx, "cred:1"); !IsNotFound(err) {
		t.Fatalf("expected not found after getdel, got %v", err)
	}
}

func TestRedis_GetDelSingleUse(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	r, err := NewRedis(Config{Driver: "redis", Addr: srv.Addr(), Prefix: "lg:"})
	if err != nil {
		t.Fatalf("new redis: %v", err)
	}
	defer r.Close()

	if err := r.Set(ctx, "cred:2", []byte("tok2"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := r.GetDel(ctx, "cred:2")
	if err != nil {
		t.Fatalf("getdel: %v", err)
	}
	if string(b) != "tok2" {
		t.Fatalf("got %q", b)
	}
	if _, err := r.GetDel(ctx, "cred:2"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedis_PrefixIsApplied(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	r, err := NewRedis(Config{Driver: "redis", Addr: srv.Addr(), Prefix: "lg:"})
	if err != nil {
		t.Fatalf("new redis: %v", err)
	}
	defer r.Close()

	if err := r.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !srv.Exists("lg:k") {
		t.Fatal("expected prefixed key lg:k in redis")
	}
}
