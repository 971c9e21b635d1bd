package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTooManyAttempts = errors.New("too many attempts, slow down")

// RateLimiter caps how often a single admin can hit the mutating and lookup
// endpoints. A defensive guard only; the lifecycle rules stay the
// correctness mechanism.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redis *redis.Client) *RateLimiter {
	return &RateLimiter{
		redis: redis,
	}
}

func (r *RateLimiter) CheckTransition(ctx context.Context, adminID uuid.UUID) error {
	if r.redis == nil {
		return nil
	}

	key := fmt.Sprintf("transition_attempts:%s", adminID)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return err
	}

	if count == 1 {
		r.redis.Expire(ctx, key, 1*time.Minute)
	}

	if count > 30 {
		return ErrTooManyAttempts
	}

	return nil
}

func (r *RateLimiter) CheckAccountSearch(ctx context.Context, adminID uuid.UUID) error {
	if r.redis == nil {
		return nil
	}

	key := fmt.Sprintf("account_search_attempts:%s", adminID)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return err
	}

	if count == 1 {
		r.redis.Expire(ctx, key, 1*time.Minute)
	}

	if count > 20 {
		return ErrTooManyAttempts
	}

	return nil
}

func (r *RateLimiter) ResetAttempts(ctx context.Context, adminID uuid.UUID, operation string) error {
	if r.redis == nil {
		return nil
	}

	key := fmt.Sprintf("%s_attempts:%s", operation, adminID)
	return r.redis.Del(ctx, key).Err()
}
