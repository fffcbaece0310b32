// Package mysql 通知仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/gorm"
)

type notificationRepositoryImpl struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储实例
func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &notificationRepositoryImpl{db: db}
}

// Create 实现 domain.NotificationRepository.Create
func (r *notificationRepositoryImpl) Create(ctx context.Context, notification *domain.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		logger.Error(ctx, "notification_repository.create failed",
			"notification_id", notification.NotificationID, "error", err)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// Update 实现 domain.NotificationRepository.Update
func (r *notificationRepositoryImpl) Update(ctx context.Context, notification *domain.Notification) error {
	if err := r.db.WithContext(ctx).Save(notification).Error; err != nil {
		logger.Error(ctx, "notification_repository.update failed",
			"notification_id", notification.NotificationID, "error", err)
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}

// ListByOrder 实现 domain.NotificationRepository.ListByOrder
func (r *notificationRepositoryImpl) ListByOrder(ctx context.Context, orderNumber string) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
