// Package ratelimit 提供两类限流器：
// 基于 redis_rate 的滑动窗口 QPS 限流（HTTP 层按 IP），
// 以及基于失败计数 + 锁定的防暴力尝试限流（登录、折扣码）。
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter QPS 限流接口
type RateLimiter interface {
	// Allow 检查给定 key 在 limit 规则下是否放行
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit QPS 限流规则
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// Result QPS 限流检查结果
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisRateLimiter 基于 Redis 的 QPS 限流实现
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter 创建 RedisRateLimiter
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
	}
}

// Allow 检查请求是否放行
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}
