package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter implements a sliding-window counter on a shared Redis
// instance. Request timestamps are kept in a sorted set per (identifier,
// window) pair; members older than the window are trimmed on every check, so
// the count always reflects the true trailing window rather than fixed
// boundaries.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a sliding-window limiter on an existing client.
// The caller owns the client's lifecycle.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

// Ping checks connectivity. Used at startup for backend selection.
func (r *RedisLimiter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Check implements Limiter. Expired members are trimmed, the surviving count
// compared against the limit, and only accepted requests are recorded.
func (r *RedisLimiter) Check(ctx context.Context, identifier string, cfg Config) (Result, error) {
	if identifier == "" {
		return Result{}, ErrInvalidIdentifier
	}

	now := r.now()
	key := redisKeyPrefix + windowKey(identifier, cfg)
	windowStart := now.Add(-cfg.Window)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	count := int(card.Val())
	if count >= cfg.Limit {
		reset, err := r.oldestReset(ctx, key, cfg, now)
		if err != nil {
			return Result{}, err
		}
		retry := time.Until(reset)
		if retry < time.Second {
			retry = time.Second
		}
		return Result{
			Success:    false,
			Limit:      cfg.Limit,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: retry,
		}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	add := r.client.TxPipeline()
	add.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	add.Expire(ctx, key, cfg.Window)
	if _, err := add.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return Result{
		Success:   true,
		Limit:     cfg.Limit,
		Remaining: cfg.Limit - count - 1,
		Reset:     now.Add(cfg.Window),
	}, nil
}

// Status implements Limiter without recording a request.
func (r *RedisLimiter) Status(ctx context.Context, identifier string, cfg Config) (Result, error) {
	if identifier == "" {
		return Result{}, ErrInvalidIdentifier
	}

	now := r.now()
	key := redisKeyPrefix + windowKey(identifier, cfg)
	windowStart := now.Add(-cfg.Window)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	count := int(card.Val())
	remaining := cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Success:   count < cfg.Limit,
		Limit:     cfg.Limit,
		Remaining: remaining,
		Reset:     now.Add(cfg.Window),
	}
	if !res.Success {
		reset, err := r.oldestReset(ctx, key, cfg, now)
		if err != nil {
			return Result{}, err
		}
		res.Reset = reset
		res.RetryAfter = time.Until(reset)
	}
	return res, nil
}

// oldestReset derives when the oldest counted request slides out of the
// window, which is the earliest moment a new request could be accepted.
func (r *RedisLimiter) oldestReset(ctx context.Context, key string, cfg Config, now time.Time) (time.Time, error) {
	oldest, err := r.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(oldest) == 0 {
		return now.Add(cfg.Window), nil
	}
	return time.UnixMilli(int64(oldest[0].Score)).Add(cfg.Window), nil
}

// Reset removes all windows for the identifier.
func (r *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+identifier+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
