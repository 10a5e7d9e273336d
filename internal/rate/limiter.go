package rate

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Defaults del limitador de intentos de verificación.
const (
	DefaultMax    = 20
	DefaultWindow = 5 * time.Minute
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter: sliding window sobre un sorted set por clave. El score de
// cada miembro es su timestamp; podar + contar va en un pipeline para que
// la ventana se evalúe de forma consistente.
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration

	now func() time.Time
	seq atomic.Int64
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{
		Client: client,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now().UTC()
	cutoff := now.Add(-l.Window)
	redisKey := l.Prefix + strings.ReplaceAll(key, " ", "_")

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	// miembro único por hit: mismo nanosegundo no puede colapsar dos intentos
	pipe.ZAdd(ctx, redisKey, rdb.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10) + "-" + strconv.FormatInt(l.seq.Add(1), 10),
	})
	card := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	hits := card.Val()
	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   l.Window,
	}
	if !allowed {
		// Retry after: cuándo expira el hit más viejo de la ventana
		oldest, err := l.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		res.RetryAfter = l.Window
		if err == nil && len(oldest) == 1 {
			expiresAt := time.Unix(0, int64(oldest[0].Score)).Add(l.Window)
			if d := expiresAt.Sub(now); d > 0 {
				res.RetryAfter = d
			}
		}
	}
	return res, nil
}
