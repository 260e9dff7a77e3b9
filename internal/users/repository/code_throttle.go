package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// attemptScript counts and arms the expiry in one step so a counter can never
// outlive its window.
var attemptScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// CodeThrottle limits how often a phone number may request a verification
// code and how many checks it may make per window.
type CodeThrottle interface {
	// Reserve claims the resend slot for phone. It returns false while a
	// previous reservation is still live.
	Reserve(ctx context.Context, phone string, window time.Duration) (bool, error)
	Release(ctx context.Context, phone string) error
	// RecordAttempt counts a code check and returns the attempts made in the
	// current window, this one included.
	RecordAttempt(ctx context.Context, phone string, window time.Duration) (int64, error)
	ResetAttempts(ctx context.Context, phone string) error
}

type redisCodeThrottle struct {
	client *redis.Client
	prefix string
}

func NewRedisCodeThrottle(client *redis.Client, prefix string) CodeThrottle {
	return &redisCodeThrottle{
		client: client,
		prefix: prefix,
	}
}

func (t *redisCodeThrottle) resendKey(phone string) string {
	return fmt.Sprintf("%s:resend:%s", t.prefix, phone)
}

func (t *redisCodeThrottle) attemptsKey(phone string) string {
	return fmt.Sprintf("%s:attempts:%s", t.prefix, phone)
}

func (t *redisCodeThrottle) Reserve(ctx context.Context, phone string, window time.Duration) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.resendKey(phone), "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("reserve resend slot: %w", err)
	}
	return ok, nil
}

func (t *redisCodeThrottle) Release(ctx context.Context, phone string) error {
	if err := t.client.Del(ctx, t.resendKey(phone)).Err(); err != nil {
		return fmt.Errorf("release resend slot: %w", err)
	}
	return nil
}

func (t *redisCodeThrottle) RecordAttempt(ctx context.Context, phone string, window time.Duration) (int64, error) {
	count, err := attemptScript.Run(ctx, t.client, []string{t.attemptsKey(phone)}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("record verification attempt: %w", err)
	}
	return count, nil
}

func (t *redisCodeThrottle) ResetAttempts(ctx context.Context, phone string) error {
	if err := t.client.Del(ctx, t.attemptsKey(phone)).Err(); err != nil {
		return fmt.Errorf("reset verification attempts: %w", err)
	}
	return nil
}
