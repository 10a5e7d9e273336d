package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
)

func TestMemoryLimiter_RejectsAboveMax(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(20, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("intento %d rechazado dentro del límite", i+1)
		}
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("intento 21 tendría que ser rechazado")
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining = %d", res.Remaining)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > 5*time.Minute {
		t.Fatalf("retry-after fuera de rango: %v", res.RetryAfter)
	}

	// otra clave no comparte ventana
	if res, _ = l.Allow(ctx, "5.6.7.8"); !res.Allowed {
		t.Fatal("claves distintas no tendrían que interferir")
	}
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	t.Parallel()

	l := NewMemoryLimiter(2, time.Minute)
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	cur := base
	l.now = func() time.Time { return cur }
	ctx := context.Background()

	l.Allow(ctx, "k")
	cur = base.Add(30 * time.Second)
	l.Allow(ctx, "k")

	cur = base.Add(40 * time.Second)
	if res, _ := l.Allow(ctx, "k"); res.Allowed {
		t.Fatal("tercer intento dentro de la ventana tendría que ser rechazado")
	}

	// los intentos rechazados también cuentan: recién hay cupo cuando
	// todos los hits registrados salen de la ventana
	cur = base.Add(61 * time.Second)
	if res, _ := l.Allow(ctx, "k"); res.Allowed {
		t.Fatal("todavía hay dos hits vivos en la ventana")
	}
	cur = base.Add(102 * time.Second)
	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("todos los hits viejos ya salieron de la ventana")
	}
}

func TestRedisLimiter_RejectsAboveMax(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "test:rl:", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("intento %d rechazado dentro del límite", i+1)
		}
		if want := int64(3 - i - 1); res.Remaining != want {
			t.Fatalf("remaining = %d, quiero %d", res.Remaining, want)
		}
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("cuarto intento tendría que ser rechazado")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("retry-after fuera de rango: %v", res.RetryAfter)
	}
}

func TestRedisLimiter_WindowSlides(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "test:rl:", 1, time.Minute)
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	cur := base
	l.now = func() time.Time { return cur }
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("primer intento")
	}
	cur = base.Add(30 * time.Second)
	if res, _ := l.Allow(ctx, "k"); res.Allowed {
		t.Fatal("segundo intento dentro de la ventana")
	}
	cur = base.Add(90 * time.Second)
	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("la ventana ya deslizó, tendría que permitir")
	}
}
