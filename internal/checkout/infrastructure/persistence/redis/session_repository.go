// Package redis 结账会话的 Redis 持久化实现
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/ecommerce/internal/checkout/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
)

// SessionRepository 结账会话仓储的 Redis 实现。
// 会话是纯服务端状态，客户端只持有 JWT，没有任何结账进度。
type SessionRepository struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewSessionRepository 创建结账会话仓储
func NewSessionRepository(c *cache.RedisCache, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRepository{cache: c, ttl: ttl}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("checkout:session:%s", userID)
}

// Get 获取用户当前会话，不存在返回 nil
func (r *SessionRepository) Get(ctx context.Context, userID string) (*domain.Session, error) {
	var session domain.Session
	found, err := r.cache.GetJSON(ctx, sessionKey(userID), &session)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

// Save 保存会话并刷新过期时间
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if err := r.cache.SetJSON(ctx, sessionKey(session.UserID), session, r.ttl); err != nil {
		return fmt.Errorf("failed to save checkout session: %w", err)
	}
	return nil
}

// Delete 删除会话
func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	if err := r.cache.Delete(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("failed to delete checkout session: %w", err)
	}
	return nil
}
