// Package cache provee un cache chico de respuestas con soporte
// multi-backend (memoria para un nodo, redis para varios). Lo usan los
// endpoints de stats/dashboard para no machacar el registry en cada hit.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get retorna el valor y si existía. Un miss no es error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config para construir un cache según driver.
type Config struct {
	Driver     string // "memory" | "redis"
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

// New construye el backend pedido; driver vacío o desconocido cae a memoria.
func New(cfg Config) (Cache, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.DefaultTTL), nil
	}
}
