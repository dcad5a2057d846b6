package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/textify/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "textify:ratelimit"
	minWait   = 10 * time.Millisecond
)

// hitScript counts one send against a provider. The window opens with the
// first hit and lasts ARGV[2] milliseconds. It returns {allowed, pttl}.
var hitScript = goredis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
local ttl = redis.call("PTTL", KEYS[1])
if hits > tonumber(ARGV[1]) then
  return {0, ttl}
end
return {1, ttl}
`)

var _ ratelimit.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter allows at most MaxAttempts sends per provider in each
// decay window, shared by every process using the same redis.
type RedisRateLimiter struct {
	client *goredis.Client
	window ratelimit.Window
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRedisRateLimiter(client *goredis.Client, window ratelimit.Window) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if window.MaxAttempts <= 0 || window.Decay < time.Second {
		window = ratelimit.NewWindow(window.MaxAttempts, int(window.Decay/time.Minute))
	}

	return &RedisRateLimiter{
		client: client,
		window: window,
		sleep:  sleepWithContext,
	}, nil
}

func Key(provider string) string {
	return keyPrefix + ":" + ratelimit.NormalizeKey(provider)
}

func (r *RedisRateLimiter) Allow(ctx context.Context, provider string) (bool, error) {
	allowed, _, err := r.hit(ctx, provider)
	return allowed, err
}

// Wait blocks until provider has room in its window, sleeping out the
// remainder of the current window after each rejected hit.
func (r *RedisRateLimiter) Wait(ctx context.Context, provider string) error {
	for {
		allowed, retryAfter, err := r.hit(ctx, provider)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		if err := r.sleep(ctx, max(retryAfter, minWait)); err != nil {
			return err
		}
	}
}

// Reset clears provider's window.
func (r *RedisRateLimiter) Reset(ctx context.Context, provider string) error {
	if err := r.client.Del(ctx, Key(provider)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit for %q: %w", provider, err)
	}
	return nil
}

func (r *RedisRateLimiter) hit(ctx context.Context, provider string) (bool, time.Duration, error) {
	if r == nil || r.client == nil {
		return false, 0, fmt.Errorf("rate limiter is not initialized")
	}
	if ratelimit.NormalizeKey(provider) == "" {
		return false, 0, fmt.Errorf("provider is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := hitScript.Run(ctx, r.client, []string{Key(provider)}, r.window.MaxAttempts, r.window.Decay.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply %v", res)
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
