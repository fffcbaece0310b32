// Package mysql 订单仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/gorm"
)

type orderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepositoryImpl{db: db}
}

// Create 实现 domain.OrderRepository.Create。
// 订单、行项目与运费预付凭证在同一事务内写入，任一失败整体回滚。
func (r *orderRepositoryImpl) Create(ctx context.Context, order *domain.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		logger.Error(ctx, "order_repository.create failed", "order_number", order.OrderNumber, "error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID 实现 domain.OrderRepository.GetByID
func (r *orderRepositoryImpl) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("DeliveryPayment").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "order_repository.get failed", "order_id", id, "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// GetByNumber 实现 domain.OrderRepository.GetByNumber
func (r *orderRepositoryImpl) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("DeliveryPayment").
		Where("order_number = ?", number).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order by number: %w", err)
	}
	return &order, nil
}

// ListByUser 实现 domain.OrderRepository.ListByUser
func (r *orderRepositoryImpl) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []*domain.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		logger.Error(ctx, "order_repository.list_by_user failed", "user_id", userID, "error", err)
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// List 实现 domain.OrderRepository.List
func (r *orderRepositoryImpl) List(ctx context.Context, status domain.Status, limit, offset int) ([]*domain.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []*domain.Order
	err := query.
		Preload("Items").
		Preload("DeliveryPayment").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		logger.Error(ctx, "order_repository.list failed", "status", status, "error", err)
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// Update 实现 domain.OrderRepository.Update。
// WHERE 条件带上前置状态做比较交换，并发修改下后写的一方会落空。
func (r *orderRepositoryImpl) Update(ctx context.Context, order *domain.Order, from domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Updates(map[string]interface{}{
			"status":       order.Status,
			"cancelled_at": order.CancelledAt,
		})
	if result.Error != nil {
		logger.Error(ctx, "order_repository.update failed", "order_id", order.ID, "error", result.Error)
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: order %d is no longer %s", domain.ErrInvalidStatusTransition, order.ID, from)
	}
	return nil
}
