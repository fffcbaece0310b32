// Package domain 通知服务的领域模型
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// NotificationType 通知通道
type NotificationType string

const (
	NotificationTypeEmail   NotificationType = "EMAIL"   // 邮件通知
	NotificationTypeWebhook NotificationType = "WEBHOOK" // Webhook 通知
)

// NotificationKind 业务类型
type NotificationKind string

const (
	// KindOrderConfirmation 下单成功后发给客户的确认邮件
	KindOrderConfirmation NotificationKind = "order_confirmation"
	// KindAdminNewOrder 新订单的管理端提醒
	KindAdminNewOrder NotificationKind = "admin_new_order"
	// KindOrderCancelled 客户取消订单的确认邮件
	KindOrderCancelled NotificationKind = "order_cancelled"
)

// NotificationStatus 通知状态
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// Notification 通知实体，投递结果落库以便排查
type Notification struct {
	gorm.Model
	// NotificationID 通知 ID
	NotificationID string `gorm:"column:notification_id;type:varchar(36);uniqueIndex;not null" json:"notification_id"`
	// UserID 用户 ID，管理端通知为空
	UserID string `gorm:"column:user_id;type:varchar(36);index" json:"user_id"`
	// OrderNumber 关联的订单号
	OrderNumber string `gorm:"column:order_number;type:varchar(32);index" json:"order_number"`
	// Type 通知通道
	Type NotificationType `gorm:"column:type;type:varchar(20);not null" json:"type"`
	// Kind 业务类型
	Kind NotificationKind `gorm:"column:kind;type:varchar(30);not null" json:"kind"`
	// Subject 通知主题
	Subject string `gorm:"column:subject;type:varchar(150)" json:"subject"`
	// Content 通知内容
	Content string `gorm:"column:content;type:text" json:"content"`
	// Target 通知目标（邮箱或 Webhook 地址）
	Target string `gorm:"column:target;type:varchar(255);not null" json:"target"`
	// Status 通知状态
	Status NotificationStatus `gorm:"column:status;type:varchar(20);index;not null;default:'PENDING'" json:"status"`
	// ErrorMessage 错误信息
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message"`
	// SentAt 发送时间
	SentAt *time.Time `gorm:"column:sent_at;type:datetime" json:"sent_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// MarkSent 标记发送成功
func (n *Notification) MarkSent(now time.Time) {
	n.Status = NotificationStatusSent
	n.SentAt = &now
	n.ErrorMessage = ""
}

// MarkFailed 标记发送失败并记录原因
func (n *Notification) MarkFailed(reason string) {
	n.Status = NotificationStatusFailed
	n.ErrorMessage = reason
}

// Sender 单条通知的投递接口
type Sender interface {
	Send(ctx context.Context, target, subject, content string) error
}

// NotificationRepository 通知仓储接口
type NotificationRepository interface {
	// Create 落库一条待发送的通知
	Create(ctx context.Context, notification *Notification) error
	// Update 保存投递结果
	Update(ctx context.Context, notification *Notification) error
	// ListByOrder 某订单的全部通知记录
	ListByOrder(ctx context.Context, orderNumber string) ([]*Notification, error)
}
