package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lncproducciones/eshops-cart/internal/api/middleware"
	"github.com/lncproducciones/eshops-cart/internal/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "catalog_calls"

type redisLimiter struct {
	client *redis.Client
	cfg    config.RateLimit
	now    func() time.Time
}

// NewRedisLimiter counts calls per key in a sorted set scored by time.
func NewRedisLimiter(client *redis.Client, cfg config.RateLimit) middleware.Limiter {
	return &redisLimiter{client: client, cfg: cfg, now: time.Now}
}

func (r *redisLimiter) Allow(ctx context.Context, id string) (middleware.Decision, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := fmt.Sprintf("%s:%s", keyPrefix, id)

	now := r.now()
	nowMs := now.UnixMilli()

	// only calls after this point are counted
	windowStart := nowMs - r.cfg.Window.Milliseconds()

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	// members are unique per call, scores are milliseconds
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: strconv.FormatInt(now.UnixNano(), 10)})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Rate limit pipeline failed", slog.String("key", key), slog.Any("error", err))
		return middleware.Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	calls := count.Val()

	if calls <= r.cfg.MaxRequests {
		return middleware.Decision{Allowed: true, Remaining: r.cfg.MaxRequests - calls}, nil
	}

	oldest, err := r.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return middleware.Decision{}, fmt.Errorf("failed to read oldest call: %w", err)
	}

	retryAfter := r.cfg.Window
	if len(oldest) > 0 {
		retryAfter = r.cfg.Window - time.Duration(nowMs-int64(oldest[0].Score))*time.Millisecond
	}

	logger.Warn("Rate limit exceeded", slog.String("key", key), slog.Int64("calls", calls), slog.Duration("retryAfter", retryAfter))

	return middleware.Decision{Allowed: false, RetryAfter: retryAfter}, nil
}
