// Package application 订单的应用层：客户查询与取消、管理端状态流转
package application

import (
	"context"
	"errors"
	"strings"
	"time"

	notificationapp "github.com/wyfcoding/ecommerce/internal/notification/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

var (
	// ErrOrderNotFound 订单不存在或不属于当前用户
	ErrOrderNotFound = errors.New("order not found")
	// ErrCannotCancel 当前状态不允许客户取消
	ErrCannotCancel = errors.New("order can no longer be cancelled")
)

// Notifier 取消订单后的通知入队接口
type Notifier interface {
	OrderCancelled(ctx context.Context, event notificationapp.OrderCancelledEvent)
}

// OrderView 订单视图，附带履约时间线序号
type OrderView struct {
	*domain.Order
	TimelineIndex int  `json:"timeline_index"`
	Cancellable   bool `json:"cancellable"`
}

func newOrderView(order *domain.Order) *OrderView {
	return &OrderView{
		Order:         order,
		TimelineIndex: order.Status.TimelineIndex(),
		Cancellable:   order.CanBeCancelledByCustomer(),
	}
}

// OrderService 订单应用服务
type OrderService struct {
	orders    domain.OrderRepository
	publisher domain.StatusPublisher
	notifier  Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewOrderService 构造函数
func NewOrderService(orders domain.OrderRepository, publisher domain.StatusPublisher, notifier Notifier, m *metrics.Metrics) *OrderService {
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock 替换时钟，测试用
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// ListMyOrders 当前用户的订单列表
func (s *OrderService) ListMyOrders(ctx context.Context, userID string, limit, offset int) ([]*OrderView, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	orders, total, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, newOrderView(order))
	}
	return views, total, nil
}

// GetMyOrder 当前用户的单个订单，越权访问按不存在处理
func (s *OrderService) GetMyOrder(ctx context.Context, userID string, orderID uint) (*OrderView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return newOrderView(order), nil
}

// Cancel 客户取消订单，只允许 pending 状态
func (s *OrderService) Cancel(ctx context.Context, userID string, orderID uint, email string) (*OrderView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	if !order.CanBeCancelledByCustomer() {
		return nil, ErrCannotCancel
	}

	now := s.now()
	from := order.Status
	if err := order.Transition(domain.StatusCancelled, now); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order, from); err != nil {
		return nil, err
	}

	s.metrics.OrdersCancelledTotal.Inc()
	s.publish(ctx, order)
	s.notifier.OrderCancelled(ctx, notificationapp.OrderCancelledEvent{
		OrderNumber:  order.OrderNumber,
		UserID:       order.UserID,
		CustomerName: strings.TrimSpace(order.FirstName + " " + order.LastName),
		Email:        email,
		CancelledAt:  now,
	})

	logger.Info(ctx, "order cancelled by customer", "order_number", order.OrderNumber, "user_id", userID)
	return newOrderView(order), nil
}

// AdminList 管理端订单列表，status 为空表示全部
func (s *OrderService) AdminList(ctx context.Context, status domain.Status, limit, offset int) ([]*OrderView, int64, error) {
	if status != "" && !domain.ValidStatus(status) {
		return nil, 0, domain.ErrInvalidStatusTransition
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	orders, total, err := s.orders.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, newOrderView(order))
	}
	return views, total, nil
}

// AdminGet 管理端按 ID 查单
func (s *OrderService) AdminGet(ctx context.Context, orderID uint) (*OrderView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return newOrderView(order), nil
}

// AdminUpdateStatus 管理端推进订单状态，非法转移被拒绝
func (s *OrderService) AdminUpdateStatus(ctx context.Context, orderID uint, target domain.Status) (*OrderView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	now := s.now()
	from := order.Status
	if err := order.Transition(target, now); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order, from); err != nil {
		return nil, err
	}

	if order.Status == domain.StatusCancelled {
		s.metrics.OrdersCancelledTotal.Inc()
		s.notifier.OrderCancelled(ctx, notificationapp.OrderCancelledEvent{
			OrderNumber:  order.OrderNumber,
			UserID:       order.UserID,
			CustomerName: strings.TrimSpace(order.FirstName + " " + order.LastName),
			Email:        order.Email,
			CancelledAt:  now,
		})
	}

	s.publish(ctx, order)
	logger.Info(ctx, "order status updated", "order_number", order.OrderNumber, "status", order.Status)
	return newOrderView(order), nil
}

// AdminGetByNumber 管理端按订单号查单，邮件和客服沟通里用的都是订单号
func (s *OrderService) AdminGetByNumber(ctx context.Context, number string) (*OrderView, error) {
	order, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return newOrderView(order), nil
}

// 状态广播尽力而为，失败不回滚状态变更
func (s *OrderService) publish(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatus(ctx, order); err != nil {
		logger.Error(ctx, "failed to publish order status", "order_number", order.OrderNumber, "error", err)
	}
}
