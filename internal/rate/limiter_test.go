package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
)

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "ip:1.2.3.4")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d bloqueado, want permitido", i+1)
		}
	}
	res, err := l.Allow(ctx, "ip:1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("hit 4 permitido, want bloqueado")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("retryAfter = %v", res.RetryAfter)
	}

	// Otra key tiene su propia ventana.
	other, err := l.Allow(ctx, "ip:5.6.7.8")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !other.Allowed {
		t.Fatal("key distinta no debe compartir ventana")
	}
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, "rl:test:", 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "login:a@x.com")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d bloqueado", i+1)
		}
	}
	res, err := l.Allow(ctx, "login:a@x.com")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("hit 3 permitido, want bloqueado")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d", res.Remaining)
	}
}
