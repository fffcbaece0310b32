package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

// AttemptPolicy 失败计数限流策略：窗口内失败 MaxAttempts 次即锁定 Lockout 时长
type AttemptPolicy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// CheckResult 检查结果
type CheckResult struct {
	// 是否放行
	Allowed bool
	// 锁定剩余时长，未锁定时为 0
	LockoutRemaining time.Duration
}

// LockoutRemainingMinutes 锁定剩余分钟数，向上取整
func (r CheckResult) LockoutRemainingMinutes() int {
	if r.LockoutRemaining <= 0 {
		return 0
	}
	return int(math.Ceil(r.LockoutRemaining.Minutes()))
}

// AttemptResult 记录一次尝试后的结果
type AttemptResult struct {
	// 本次之后是否仍可继续尝试
	Allowed bool
	// 是否在本次触发了锁定
	LockedOut bool
	// 剩余可尝试次数（未锁定时有效）
	AttemptsLeft int
	// 面向用户的提示
	Message string
}

// AttemptStore 失败计数的持久化后端。
// RecordFailure 必须原子地完成"剪枝-追加-判定锁定"三步，
// 避免并发请求各自读到过期计数导致晚一次触发锁定。
type AttemptStore interface {
	// State 返回窗口内失败次数与锁定截止时间（零值表示未锁定），会先剪掉窗口外的记录
	State(ctx context.Context, key string, now time.Time, window time.Duration) (count int, lockedUntil time.Time, err error)
	// RecordFailure 记录一次失败，达到阈值时设置锁定，返回新计数与锁定截止时间
	RecordFailure(ctx context.Context, key string, now time.Time, policy AttemptPolicy) (count int, lockedUntil time.Time, err error)
	// Reset 清空该 key 的全部失败记录与锁定
	Reset(ctx context.Context, key string) error
}

// AttemptLimiter 防暴力尝试限流器。
// 同一个实现同时服务登录和折扣码两个调用方，仅策略与 key 前缀不同。
type AttemptLimiter struct {
	store  AttemptStore
	policy AttemptPolicy
	prefix string
	now    func() time.Time
}

// NewAttemptLimiter 创建限流器，prefix 用于隔离不同调用方（如 login、discount）
func NewAttemptLimiter(store AttemptStore, prefix string, policy AttemptPolicy) *AttemptLimiter {
	return &AttemptLimiter{
		store:  store,
		policy: policy,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock 替换时钟，测试用
func (l *AttemptLimiter) WithClock(now func() time.Time) *AttemptLimiter {
	l.now = now
	return l
}

func (l *AttemptLimiter) storeKey(key string) string {
	return fmt.Sprintf("attempts:%s:%s", l.prefix, key)
}

// Check 检查当前是否放行，不消耗尝试次数
func (l *AttemptLimiter) Check(ctx context.Context, key string) (CheckResult, error) {
	now := l.now()
	_, lockedUntil, err := l.store.State(ctx, l.storeKey(key), now, l.policy.Window)
	if err != nil {
		return CheckResult{}, fmt.Errorf("attempt limiter check failed: %w", err)
	}
	if lockedUntil.After(now) {
		return CheckResult{Allowed: false, LockoutRemaining: lockedUntil.Sub(now)}, nil
	}
	return CheckResult{Allowed: true}, nil
}

// RecordAttempt 记录一次尝试。成功则完全重置；失败则计数，达到阈值进入锁定
func (l *AttemptLimiter) RecordAttempt(ctx context.Context, key string, success bool) (AttemptResult, error) {
	if success {
		if err := l.store.Reset(ctx, l.storeKey(key)); err != nil {
			return AttemptResult{}, fmt.Errorf("attempt limiter reset failed: %w", err)
		}
		return AttemptResult{Allowed: true}, nil
	}

	now := l.now()
	count, lockedUntil, err := l.store.RecordFailure(ctx, l.storeKey(key), now, l.policy)
	if err != nil {
		return AttemptResult{}, fmt.Errorf("attempt limiter record failed: %w", err)
	}

	if lockedUntil.After(now) {
		minutes := int(math.Ceil(lockedUntil.Sub(now).Minutes()))
		return AttemptResult{
			Allowed:   false,
			LockedOut: true,
			Message:   fmt.Sprintf("Too many attempts. Please try again in %d minutes.", minutes),
		}, nil
	}

	left := l.policy.MaxAttempts - count
	if left < 0 {
		left = 0
	}
	return AttemptResult{
		Allowed:      true,
		AttemptsLeft: left,
		Message:      fmt.Sprintf("%d attempts remaining.", left),
	}, nil
}

// Status 只读查询当前锁定状态，用于页面加载时渲染警告
func (l *AttemptLimiter) Status(ctx context.Context, key string) (locked bool, remainingMinutes int, err error) {
	res, err := l.Check(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if res.Allowed {
		return false, 0, nil
	}
	return true, res.LockoutRemainingMinutes(), nil
}
