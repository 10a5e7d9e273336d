package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memCache struct{ c *gocache.Cache }

// NewMemory crea un cache in-process con limpieza periódica.
func NewMemory(defaultTTL time.Duration) Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &memCache{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	return b, true, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *memCache) Close() error {
	m.c.Flush()
	return nil
}
