package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sahlastore/assistant-server-go/internal/audit"
	"github.com/sahlastore/assistant-server-go/internal/config"
	"github.com/sahlastore/assistant-server-go/internal/service"
)

// RedisRateLimitMiddleware limits ops API requests per client IP using the
// shared Redis sliding window.
type RedisRateLimitMiddleware struct {
	limiter *service.RateLimiter
}

func NewRedisRateLimitMiddleware(client *redis.Client) *RedisRateLimitMiddleware {
	return &RedisRateLimitMiddleware{
		limiter: service.NewRateLimiter(client),
	}
}

func (m *RedisRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ops:" + r.RemoteAddr

		allowed, resetAt := m.limiter.CheckLimit(
			r.Context(), key, config.DefaultRateLimitPerMin, time.Minute,
		)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.DefaultRateLimitPerMin))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
