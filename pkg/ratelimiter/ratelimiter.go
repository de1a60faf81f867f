package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/blogapp/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

// RateLimitError is returned when an action is still cooling down.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return e.Message }

func (e *RateLimitError) Unwrap() error { return apperror.ErrRateLimitExceeded }

func key(userID uint, action string) string {
	return fmt.Sprintf("rate_limit:user:%d:%s", userID, action)
}

// CheckAndSetRateLimit claims the cooldown slot for (userID, action).
// A nil client or a zero limit always allows.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uint, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uint, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, action)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uint, action string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, key(userID, action)).Err()
}

// Acquire claims the slot or returns a *RateLimitError describing the wait.
// The returned release func frees the slot again; callers use it when the
// guarded action fails.
func Acquire(ctx context.Context, rdb *redis.Client, userID uint, action string, limit time.Duration) (release func(), err error) {
	allowed, err := CheckAndSetRateLimit(ctx, rdb, userID, action, limit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := GetRateLimitTTL(ctx, rdb, userID, action)
		return nil, &RateLimitError{
			Message:    fmt.Sprintf("you are doing that too fast. Please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}
	return func() { _ = ClearRateLimit(context.WithoutCancel(ctx), rdb, userID, action) }, nil
}
