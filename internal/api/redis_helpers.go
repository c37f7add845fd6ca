package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errTooManyAttempts = errors.New("too many pin attempts")

type attemptCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// attemptLimiter 是固定窗口计数器，窗口从第一次尝试起算。
type attemptLimiter struct {
	counter attemptCounter
	max     int64
	window  time.Duration
}

// hit 记一次尝试，超过上限时返回 errTooManyAttempts。
func (l attemptLimiter) hit(ctx context.Context, key string) error {
	count, err := l.counter.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}
	if count == 1 {
		_ = l.counter.Expire(ctx, key, l.window).Err()
	}
	if count > l.max {
		return errTooManyAttempts
	}
	return nil
}

func (l attemptLimiter) reset(ctx context.Context, key string) {
	_ = l.counter.Del(ctx, key).Err()
}
