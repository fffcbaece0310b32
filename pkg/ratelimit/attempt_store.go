package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockKeySuffix = ":lock"

// recordFailureScript 原子地完成：剪掉窗口外的失败记录、追加本次失败、
// 达到阈值时写入锁定 key。返回 {窗口内计数, 锁定截止毫秒(未锁定为 0)}。
var recordFailureScript = redis.NewScript(`
local attemptsKey = KEYS[1]
local lockKey = KEYS[2]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local maxAttempts = tonumber(ARGV[3])
local lockout = tonumber(ARGV[4])
local member = ARGV[5]

local lockedUntil = redis.call('GET', lockKey)
if lockedUntil and tonumber(lockedUntil) > now then
	return {maxAttempts, tonumber(lockedUntil)}
end

redis.call('ZREMRANGEBYSCORE', attemptsKey, 0, now - window)
redis.call('ZADD', attemptsKey, now, member)
redis.call('PEXPIRE', attemptsKey, window)

local count = redis.call('ZCARD', attemptsKey)
if count >= maxAttempts then
	local until_ms = now + lockout
	redis.call('SET', lockKey, until_ms, 'PX', lockout)
	return {count, until_ms}
end

return {count, 0}
`)

// RedisAttemptStore AttemptStore 的 Redis 实现。
// 失败记录存为按时间戳打分的有序集合，锁定单独存 key 并借助 TTL 自动过期。
type RedisAttemptStore struct {
	client *redis.Client
}

// NewRedisAttemptStore 创建 Redis 失败计数存储
func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

// State 实现 AttemptStore.State
func (s *RedisAttemptStore) State(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	nowMs := now.UnixMilli()

	lockedVal, err := s.client.Get(ctx, key+lockKeySuffix).Int64()
	if err != nil && err != redis.Nil {
		return 0, time.Time{}, err
	}
	var lockedUntil time.Time
	if err == nil && lockedVal > nowMs {
		lockedUntil = time.UnixMilli(lockedVal)
	}

	if err := s.client.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", nowMs-window.Milliseconds())).Err(); err != nil {
		return 0, time.Time{}, err
	}
	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	return int(count), lockedUntil, nil
}

// RecordFailure 实现 AttemptStore.RecordFailure
func (s *RedisAttemptStore) RecordFailure(ctx context.Context, key string, now time.Time, policy AttemptPolicy) (int, time.Time, error) {
	vals, err := recordFailureScript.Run(ctx, s.client,
		[]string{key, key + lockKeySuffix},
		now.UnixMilli(),
		policy.Window.Milliseconds(),
		policy.MaxAttempts,
		policy.Lockout.Milliseconds(),
		fmt.Sprintf("%d", now.UnixNano()),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(vals) != 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected script result: %v", vals)
	}

	var lockedUntil time.Time
	if vals[1] > 0 {
		lockedUntil = time.UnixMilli(vals[1])
	}
	return int(vals[0]), lockedUntil, nil
}

// Reset 实现 AttemptStore.Reset
func (s *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key, key+lockKeySuffix).Err()
}

type memoryEntry struct {
	attempts    []time.Time
	lockedUntil time.Time
}

// MemoryAttemptStore AttemptStore 的内存实现，单进程部署与测试用
type MemoryAttemptStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryAttemptStore 创建内存失败计数存储
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryAttemptStore) prune(e *memoryEntry, now time.Time, window time.Duration) {
	kept := e.attempts[:0]
	for _, t := range e.attempts {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	e.attempts = kept
}

// State 实现 AttemptStore.State
func (s *MemoryAttemptStore) State(_ context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return 0, time.Time{}, nil
	}
	s.prune(e, now, window)

	var lockedUntil time.Time
	if e.lockedUntil.After(now) {
		lockedUntil = e.lockedUntil
	}
	return len(e.attempts), lockedUntil, nil
}

// RecordFailure 实现 AttemptStore.RecordFailure
func (s *MemoryAttemptStore) RecordFailure(_ context.Context, key string, now time.Time, policy AttemptPolicy) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &memoryEntry{}
		s.entries[key] = e
	}

	if e.lockedUntil.After(now) {
		return policy.MaxAttempts, e.lockedUntil, nil
	}

	s.prune(e, now, policy.Window)
	e.attempts = append(e.attempts, now)

	if len(e.attempts) >= policy.MaxAttempts {
		e.lockedUntil = now.Add(policy.Lockout)
		return len(e.attempts), e.lockedUntil, nil
	}
	return len(e.attempts), time.Time{}, nil
}

// Reset 实现 AttemptStore.Reset
func (s *MemoryAttemptStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
