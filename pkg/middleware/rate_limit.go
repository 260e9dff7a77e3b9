package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	apperrors "rentals/pkg/errors"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RateLimiter counts requests per key in fixed windows shared through Redis.
type RateLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
	log    *logger.Logger
}

func NewRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration, log *logger.Logger) (*RateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("rate limiter requires a redis client")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("rate limiter requires a positive limit")
	}
	if window < time.Millisecond {
		return nil, fmt.Errorf("rate limiter window must be at least 1ms, got: %s", window)
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "rentals:ratelimit"
	}
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
		log:    log,
	}, nil
}

// Allow fails open on Redis errors so an unavailable Redis degrades
// throttling only.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	windowMs := rl.window.Milliseconds()
	nowMs := rl.now().UTC().UnixMilli()
	slot := nowMs / windowMs
	retryAfter := time.Duration((slot+1)*windowMs-nowMs) * time.Millisecond

	redisKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, slot)
	count, err := fixedWindowScript.Run(ctx, rl.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		rl.log.Error("Rate limiter unavailable", "error", err)
		return true, 0
	}
	return count <= int64(rl.limit), retryAfter
}

// RateLimit keys callers with a valid bearer token by user id and everyone
// else by client IP. verifier may be nil.
func RateLimit(limiter *RateLimiter, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r, verifier)

			allowed, retryAfter := limiter.Allow(r.Context(), key)
			if !allowed {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"key", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				httputil.WriteError(w, apperrors.TooManyRequests("Rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request, verifier TokenVerifier) string {
	if verifier != nil {
		if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
			if identity, err := verifier.Verify(token); err == nil {
				return "user:" + identity.UserID
			}
		}
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
