package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	apperrors "rentals/pkg/errors"
	httputil "rentals/pkg/http"
	"rentals/pkg/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool, error)
	// Reserve claims key for an in-flight request. It returns false when
	// another request already holds or completed it.
	Reserve(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, response *CachedResponse) error
	Release(ctx context.Context, key string) error
}

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = "rentals:idempotency"
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisIdempotencyStore) responseKey(key string) string {
	return s.prefix + ":response:" + key
}

func (s *RedisIdempotencyStore) lockKey(key string) string {
	return s.prefix + ":lock:" + key
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool, error) {
	raw, err := s.client.Get(ctx, s.responseKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cached CachedResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached response: %w", err)
	}
	return &cached, true, nil
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, s.lockKey(key), "1", s.ttl).Result()
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) error {
	response.CreatedAt = time.Now().UTC()
	raw, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}
	return s.client.Set(ctx, s.responseKey(key), raw, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.lockKey(key)).Err()
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped to the caller's credentials and route.
func Idempotency(store IdempotencyStore, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(IdempotencyKeyHeader)
			if clientKey == "" || !isUnsafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := scopedKey(r, clientKey)
			ctx := r.Context()

			cached, found, err := store.Get(ctx, key)
			if err != nil {
				log.Error("Idempotency store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if found {
				replayCachedResponse(w, cached)
				return
			}

			reserved, err := store.Reserve(ctx, key)
			if err != nil {
				log.Error("Idempotency store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				httputil.WriteError(w, apperrors.Conflict("A request with this Idempotency-Key is already in progress"))
				return
			}

			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(capture, r)

			// Detached so a cancelled request still records its outcome.
			storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				if err := store.Set(storeCtx, key, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       capture.body.Bytes(),
				}); err != nil {
					log.Error("Failed to cache idempotent response", "error", err)
				}
				return
			}
			if err := store.Release(storeCtx, key); err != nil {
				log.Error("Failed to release idempotency key", "error", err)
			}
		})
	}
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func scopedKey(r *http.Request, clientKey string) string {
	h := sha256.New()
	h.Write([]byte(r.Header.Get("Authorization")))
	h.Write([]byte{0})
	h.Write([]byte(r.Method + " " + r.URL.Path))
	h.Write([]byte{0})
	h.Write([]byte(clientKey))
	return hex.EncodeToString(h.Sum(nil))
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		if key == RequestIDHeader {
			continue
		}
		w.Header()[key] = append([]string(nil), values...)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
