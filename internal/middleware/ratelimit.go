// Package middleware provides HTTP middleware for Spacey.
// ratelimit.go implements a per-IP fixed-window rate limiter with two
// backing stores: Redis when configured (shared across instances) and an
// in-process map otherwise.
package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/spaceyvirtualera/spacey/internal/apperror"
)

// Limiter counts hits for a key within a window.
type Limiter interface {
	// Allow records one hit for key and reports whether it is within limit.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit returns middleware that limits requests per IP to maxRequests
// within the given window. scope separates counters of different routes.
// Returns 429 when exceeded. A failing store lets the request through: an
// outage of the limiter must not lock everyone out of signing in.
func RateLimit(l Limiter, scope string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := scope + ":" + c.RealIP()

			ok, err := l.Allow(c.Request().Context(), key, maxRequests, window)
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					slog.String("scope", scope),
					slog.Any("error", err),
				)
				return next(c)
			}
			if !ok {
				return apperror.NewTooManyRequests("Too many requests. Please try again later.")
			}
			return next(c)
		}
	}
}

// --- Redis ---

// RedisLimiter keeps counters in Redis. Each hit runs INCR and EXPIRE NX in
// one MULTI/EXEC, so every counter carries a TTL even if an earlier hit
// failed halfway.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisLimiter creates a limiter storing counters under prefix.
func NewRedisLimiter(rdb *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix}
}

// Allow implements Limiter. The window starts at the first hit; later hits
// leave the expiry alone.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := l.prefix + key

	var count *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return count.Val() <= int64(limit), nil
}

// --- In-memory ---

// rateLimitEntry tracks request counts for a single key within a window.
type rateLimitEntry struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

// MemoryLimiter keeps counters in process memory. Suitable for a single
// instance or local development.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryLimiter creates an in-memory limiter and starts a background
// sweep of expired entries every cleanupEvery. Call Close to stop it.
func NewMemoryLimiter(cleanupEvery time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]*rateLimitEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.sweep(cleanupEvery)
	return l
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[key]
	if !exists || now.Sub(entry.windowStart) > window {
		l.entries[key] = &rateLimitEntry{count: 1, windowStart: now, window: window}
		return limit >= 1, nil
	}

	entry.count++
	return entry.count <= limit, nil
}

// Close stops the background sweep.
func (l *MemoryLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// sweep drops entries whose window ended long enough ago.
func (l *MemoryLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, entry := range l.entries {
				if now.Sub(entry.windowStart) > entry.window*2 {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
