// Package domain 订单的领域模型：订单聚合、状态机与行项目快照
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status 订单状态
type Status string

const (
	// StatusPending 待确认，唯一允许客户取消的状态
	StatusPending Status = "pending"
	// StatusConfirmed 已确认
	StatusConfirmed Status = "confirmed"
	// StatusProcessing 备货中
	StatusProcessing Status = "processing"
	// StatusShipped 已发货
	StatusShipped Status = "shipped"
	// StatusDelivered 已送达，终态
	StatusDelivered Status = "delivered"
	// StatusCancelled 已取消，终态
	StatusCancelled Status = "cancelled"
)

// ErrInvalidStatusTransition 状态转移不被允许
var ErrInvalidStatusTransition = errors.New("invalid order status transition")

// 正向流转只能逐级推进；取消只能发生在 pending。
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

// 履约时间线上的顺序，用于前端进度条渲染；cancelled 不在时间线上。
var statusTimeline = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// ValidStatus 是否为合法状态值
func ValidStatus(s Status) bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusTimeline[s]
	return ok
}

// CanTransitionTo 当前状态能否转移到目标状态
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TimelineIndex 状态在履约时间线上的序号，cancelled 返回 -1
func (s Status) TimelineIndex() int {
	idx, ok := statusTimeline[s]
	if !ok {
		return -1
	}
	return idx
}

// Order 订单聚合根。
// 行项目和金额都是下单时刻的快照，之后商品改价、折扣码下架均不影响已有订单。
type Order struct {
	gorm.Model
	OrderNumber    string          `gorm:"column:order_number;type:varchar(32);uniqueIndex;not null" json:"order_number"`
	UserID         string          `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Email          string          `gorm:"column:customer_email;type:varchar(255)" json:"email,omitempty"`
	Status         Status          `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:decimal(12,2);not null" json:"subtotal"`
	ShippingFee    decimal.Decimal `gorm:"column:shipping_fee;type:decimal(12,2);not null" json:"shipping_fee"`
	DiscountCode   string          `gorm:"column:discount_code;type:varchar(50)" json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:decimal(12,2);not null;default:0" json:"discount_amount"`
	GrandTotal     decimal.Decimal `gorm:"column:grand_total;type:decimal(12,2);not null" json:"grand_total"`

	ShippingZone   string `gorm:"column:shipping_zone;type:varchar(20);not null" json:"shipping_zone"`
	ShippingMethod string `gorm:"column:shipping_method;type:varchar(20);not null" json:"shipping_method"`
	FirstName      string `gorm:"column:first_name;type:varchar(50);not null" json:"first_name"`
	LastName       string `gorm:"column:last_name;type:varchar(50)" json:"last_name"`
	Phone          string `gorm:"column:phone;type:varchar(20);not null" json:"phone"`
	Address        string `gorm:"column:address;type:varchar(255);not null" json:"address"`
	City           string `gorm:"column:city;type:varchar(50);not null" json:"city"`
	PostalCode     string `gorm:"column:postal_code;type:varchar(10)" json:"postal_code"`

	Items           []OrderItem      `gorm:"foreignKey:OrderID" json:"items"`
	DeliveryPayment *DeliveryPayment `gorm:"foreignKey:OrderID" json:"delivery_payment,omitempty"`

	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string { return "orders" }

// OrderItem 订单行快照，创建后不可变
type OrderItem struct {
	gorm.Model
	OrderID      uint            `gorm:"column:order_id;index;not null" json:"order_id"`
	ProductID    string          `gorm:"column:product_id;type:varchar(36);not null" json:"product_id"`
	ProductName  string          `gorm:"column:product_name;type:varchar(100);not null" json:"product_name"`
	ProductImage string          `gorm:"column:product_image;type:varchar(500)" json:"product_image,omitempty"`
	Quantity     int             `gorm:"column:quantity;not null" json:"quantity"`
	Size         string          `gorm:"column:size;type:varchar(10)" json:"size,omitempty"`
	ColorName    string          `gorm:"column:color_name;type:varchar(30)" json:"color_name,omitempty"`
	ColorHex     string          `gorm:"column:color_hex;type:varchar(7)" json:"color_hex,omitempty"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null" json:"unit_price"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:decimal(12,2);not null" json:"line_total"`
}

// TableName 指定表名
func (OrderItem) TableName() string { return "order_items" }

// DeliveryPayment 区外订单的运费预付凭证子记录，仅供管理员线下对账
type DeliveryPayment struct {
	gorm.Model
	OrderID       uint   `gorm:"column:order_id;uniqueIndex;not null" json:"order_id"`
	Provider      string `gorm:"column:provider;type:varchar(20);not null" json:"provider"`
	SenderPhone   string `gorm:"column:sender_phone;type:varchar(20);not null" json:"sender_phone"`
	TransactionID string `gorm:"column:transaction_id;type:varchar(64);not null" json:"transaction_id"`
}

// TableName 指定表名
func (DeliveryPayment) TableName() string { return "order_delivery_payments" }

// CanBeCancelledByCustomer 客户能否取消：只有 pending 可以
func (o *Order) CanBeCancelledByCustomer() bool {
	return o.Status == StatusPending
}

// Transition 执行状态转移，非法转移返回错误
func (o *Order) Transition(target Status, now time.Time) error {
	if !o.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, target)
	}
	o.Status = target
	if target == StatusCancelled {
		o.CancelledAt = &now
	}
	return nil
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 创建订单及全部行项目，单事务，任一失败整体回滚
	Create(ctx context.Context, order *Order) error
	// GetByID 按主键查找，不存在返回 nil
	GetByID(ctx context.Context, id uint) (*Order, error)
	// GetByNumber 按订单号查找，不存在返回 nil
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// ListByUser 某用户的订单，按创建时间倒序分页
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Order, int64, error)
	// List 管理端列表，status 为空表示全部
	List(ctx context.Context, status Status, limit, offset int) ([]*Order, int64, error)
	// Update 保存状态变更，以 from 作为前置状态做比较交换；
	// 订单已被并发修改时返回 ErrInvalidStatusTransition
	Update(ctx context.Context, order *Order, from Status) error
}

// StatusPublisher 订单状态变更的实时广播接口
type StatusPublisher interface {
	// PublishStatus 广播订单的最新状态
	PublishStatus(ctx context.Context, order *Order) error
}
