// Package ratelimit throttles failed logins per username with fixed-window
// counters kept in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps Redis failures. Callers decide whether to fail open.
var ErrUnavailable = errors.New("rate limiter unavailable")

const keyPrefix = "contactkeeper:login:"

// LoginLimiter is what the user service needs from a limiter.
type LoginLimiter interface {
	Check(ctx context.Context, username string) error
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

type RedisLimiter struct {
	redis       redis.UniversalClient
	maxAttempts int
	window      time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{redis: client, maxAttempts: maxAttempts, window: window}
}

func loginKey(username string) string {
	return keyPrefix + username
}

// Check returns common.ErrTooManyRequests once the failure budget for
// username is spent in the current window.
func (l *RedisLimiter) Check(ctx context.Context, username string) error {
	count, err := l.redis.Get(ctx, loginKey(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count >= int64(l.maxAttempts) {
		return common.ErrTooManyRequests
	}
	return nil
}

// RecordFailure counts one failed login. The window starts at the first failure.
func (l *RedisLimiter) RecordFailure(ctx context.Context, username string) error {
	key := loginKey(username)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *RedisLimiter) Reset(ctx context.Context, username string) error {
	if err := l.redis.Del(ctx, loginKey(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Noop never throttles. It is used when Redis is not configured.
type Noop struct{}

func (Noop) Check(context.Context, string) error         { return nil }
func (Noop) RecordFailure(context.Context, string) error { return nil }
func (Noop) Reset(context.Context, string) error         { return nil }
