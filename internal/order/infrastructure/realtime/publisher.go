// Package realtime 订单状态变更的 Redis 发布/订阅广播
package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
)

// StatusChannel 某订单的状态广播频道名
func StatusChannel(orderID uint) string {
	return fmt.Sprintf("orders:status:%d", orderID)
}

// StatusEvent 广播到频道的事件载荷，SSE 端原样转发
type StatusEvent struct {
	OrderID       uint          `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	Status        domain.Status `json:"status"`
	TimelineIndex int           `json:"timeline_index"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// RedisStatusPublisher 订单状态广播的 Redis 实现
type RedisStatusPublisher struct {
	cache *cache.RedisCache
}

// NewRedisStatusPublisher 创建状态广播器
func NewRedisStatusPublisher(c *cache.RedisCache) *RedisStatusPublisher {
	return &RedisStatusPublisher{cache: c}
}

// PublishStatus 实现 domain.StatusPublisher.PublishStatus
func (p *RedisStatusPublisher) PublishStatus(ctx context.Context, order *domain.Order) error {
	event := StatusEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		TimelineIndex: order.Status.TimelineIndex(),
		OccurredAt:    time.Now(),
	}
	if err := p.cache.Publish(ctx, StatusChannel(order.ID), event); err != nil {
		return fmt.Errorf("failed to publish order status: %w", err)
	}
	return nil
}

// Subscribe 订阅某订单的状态频道，调用方负责 Close
func (p *RedisStatusPublisher) Subscribe(ctx context.Context, orderID uint) *redis.PubSub {
	return p.cache.Subscribe(ctx, StatusChannel(orderID))
}
