package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type visitor struct {
	count    int
	lastSeen time.Time
}

// RateLimiter allows limit requests per client IP and window. With a redis
// client the counters are shared between instances; without one they are
// kept in memory.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	redis    *redis.Client
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		redis:    redisClient,
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Cleanup drops idle in-memory visitors until ctx is done.
func (rl *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if rl.now().Sub(v.lastSeen) > rl.window {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := rl.hit(r.Context(), r.RemoteAddr)
		if err != nil {
			// fail open
			log.Printf("Rate limiter error: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > rl.limit {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) hit(ctx context.Context, ip string) (int, error) {
	if rl.redis != nil {
		return rl.hitRedis(ctx, ip)
	}
	return rl.hitMemory(ip), nil
}

// hitRedis counts in a fixed window keyed by the window start.
func (rl *RateLimiter) hitRedis(ctx context.Context, ip string) (int, error) {
	slot := rl.now().Truncate(rl.window).Unix()
	key := fmt.Sprintf("ratelimit:%s:%d", ip, slot)

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (rl *RateLimiter) hitMemory(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastSeen) > rl.window {
		rl.visitors[ip] = &visitor{count: 1, lastSeen: now}
		return 1
	}

	v.count++
	v.lastSeen = now
	return v.count
}
