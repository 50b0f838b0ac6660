package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/vovakirdan/snake-arena/internal/api"
)

// Limiter decides whether one more request from key fits in the current
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a fixed-window limiter kept in process memory.
type MemoryLimiter struct {
	max    int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window
}

// NewMemoryLimiter allows max requests per key every period.
func NewMemoryLimiter(max int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		period:  period,
		now:     time.Now,
		clients: make(map[string]*window),
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) > l.period {
		l.clients[key] = &window{start: now, count: 1}
		l.sweepLocked(now)
		return true, nil
	}
	w.count++
	return w.count <= l.max, nil
}

// sweepLocked drops expired windows so the map does not grow without bound.
func (l *MemoryLimiter) sweepLocked(now time.Time) {
	if len(l.clients) < 1024 {
		return
	}
	for k, w := range l.clients {
		if now.Sub(w.start) > l.period {
			delete(l.clients, k)
		}
	}
}

// RedisLimiter is a fixed-window limiter shared through Redis INCR/EXPIRE.
// Keys look like rl:<window_seconds>:<identifier>.
type RedisLimiter struct {
	client *redis.Client
	max    int
	period time.Duration
}

// NewRedisLimiter connects to Redis and pings it. The caller should fall
// back to a MemoryLimiter when this fails.
func NewRedisLimiter(ctx context.Context, addr, password string, db, max int, period time.Duration) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("server: redis %s: %w", addr, err)
	}
	return &RedisLimiter{client: client, max: max, period: period}, nil
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rkey := "rl:" + strconv.FormatInt(int64(l.period.Seconds()), 10) + ":" + key

	val, err := l.client.Incr(ctx, rkey).Result()
	if err != nil {
		return true, err
	}
	if val == 1 {
		l.client.Expire(ctx, rkey, l.period)
	}
	return val <= int64(l.max), nil
}

// Close releases the Redis connection pool.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// rateLimit rejects clients over the limit with 429. Limiter errors let the
// request through.
func rateLimit(l Limiter, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable", "err", err)
			c.Header("X-RateLimit-Error", "limiter-error")
			c.Next()
			return
		}
		if !ok {
			rlBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		rlRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
