// Package application 通知服务的应用层：入队、模板渲染与消费循环
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// OrderLine 通知模板里的订单行
type OrderLine struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Size        string          `json:"size,omitempty"`
	ColorName   string          `json:"color_name,omitempty"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// WalletRef 运费预付凭证在通知里的摘要
type WalletRef struct {
	Provider      string `json:"provider"`
	SenderPhone   string `json:"sender_phone"`
	TransactionID string `json:"transaction_id"`
}

// OrderPlacedEvent 下单完成事件，驱动客户确认邮件和管理端提醒
type OrderPlacedEvent struct {
	OrderNumber     string          `json:"order_number"`
	UserID          string          `json:"user_id"`
	CustomerName    string          `json:"customer_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	PostalCode      string          `json:"postal_code,omitempty"`
	Zone            string          `json:"zone"`
	ShippingMethod  string          `json:"shipping_method"`
	Items           []OrderLine     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	DiscountCode    string          `json:"discount_code,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	DeliveryPayment *WalletRef      `json:"delivery_payment,omitempty"`
	PlacedAt        time.Time       `json:"placed_at"`
}

// OrderCancelledEvent 客户取消订单事件
type OrderCancelledEvent struct {
	OrderNumber  string    `json:"order_number"`
	UserID       string    `json:"user_id"`
	CustomerName string    `json:"customer_name"`
	Email        string    `json:"email"`
	CancelledAt  time.Time `json:"cancelled_at"`
}

// QueuedMessage 写入 Kafka 的通知消息，worker 端只负责投递
type QueuedMessage struct {
	MessageID   string                  `json:"message_id"`
	UserID      string                  `json:"user_id"`
	OrderNumber string                  `json:"order_number"`
	Type        domain.NotificationType `json:"type"`
	Kind        domain.NotificationKind `json:"kind"`
	Target      string                  `json:"target"`
	Subject     string                  `json:"subject"`
	Content     string                  `json:"content"`
	EnqueuedAt  time.Time               `json:"enqueued_at"`
}

// Enqueuer 通知入队器。
// 入队失败只记日志和指标，绝不让通知问题阻断下单或取消。
type Enqueuer struct {
	producer *mq.KafkaProducer
	cfg      config.NotificationConfig
	metrics  *metrics.Metrics
}

// NewEnqueuer 创建通知入队器
func NewEnqueuer(producer *mq.KafkaProducer, cfg config.NotificationConfig, m *metrics.Metrics) *Enqueuer {
	return &Enqueuer{producer: producer, cfg: cfg, metrics: m}
}

// OrderPlaced 下单完成：客户确认邮件 + 管理端新订单提醒
func (e *Enqueuer) OrderPlaced(ctx context.Context, event OrderPlacedEvent) {
	e.enqueue(ctx, e.cfg.EmailTopic, QueuedMessage{
		MessageID:   uuid.NewString(),
		UserID:      event.UserID,
		OrderNumber: event.OrderNumber,
		Type:        domain.NotificationTypeEmail,
		Kind:        domain.KindOrderConfirmation,
		Target:      event.Email,
		Subject:     fmt.Sprintf("Order %s confirmed", event.OrderNumber),
		Content:     renderConfirmationEmail(event),
		EnqueuedAt:  time.Now(),
	})

	e.enqueue(ctx, e.cfg.AdminTopic, QueuedMessage{
		MessageID:   uuid.NewString(),
		OrderNumber: event.OrderNumber,
		Type:        domain.NotificationTypeWebhook,
		Kind:        domain.KindAdminNewOrder,
		Target:      e.cfg.AdminWebhookURL,
		Subject:     fmt.Sprintf("New order %s", event.OrderNumber),
		Content:     renderAdminAlert(event),
		EnqueuedAt:  time.Now(),
	})
}

// OrderCancelled 客户取消订单的确认邮件
func (e *Enqueuer) OrderCancelled(ctx context.Context, event OrderCancelledEvent) {
	e.enqueue(ctx, e.cfg.EmailTopic, QueuedMessage{
		MessageID:   uuid.NewString(),
		UserID:      event.UserID,
		OrderNumber: event.OrderNumber,
		Type:        domain.NotificationTypeEmail,
		Kind:        domain.KindOrderCancelled,
		Target:      event.Email,
		Subject:     fmt.Sprintf("Order %s cancelled", event.OrderNumber),
		Content: fmt.Sprintf("Dear %s,\n\nYour order %s was cancelled on %s.\nIf you did not request this, please contact support.\n",
			event.CustomerName, event.OrderNumber, event.CancelledAt.Format("2006-01-02 15:04")),
		EnqueuedAt: time.Now(),
	})
}

func (e *Enqueuer) enqueue(ctx context.Context, topic string, msg QueuedMessage) {
	if msg.Target == "" {
		logger.Warn(ctx, "notification skipped, empty target", "kind", msg.Kind, "order_number", msg.OrderNumber)
		e.metrics.NotificationsEnqueuedTotal.WithLabelValues("skipped").Inc()
		return
	}
	if err := e.producer.SendMessage(ctx, topic, msg.OrderNumber, msg); err != nil {
		logger.Error(ctx, "failed to enqueue notification",
			"kind", msg.Kind, "order_number", msg.OrderNumber, "error", err)
		e.metrics.NotificationsEnqueuedTotal.WithLabelValues("error").Inc()
		return
	}
	e.metrics.NotificationsEnqueuedTotal.WithLabelValues("ok").Inc()
}

func renderConfirmationEmail(event OrderPlacedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\nThank you for your order %s placed on %s.\n\n",
		event.CustomerName, event.OrderNumber, event.PlacedAt.Format("2006-01-02 15:04"))
	for _, line := range event.Items {
		variant := line.Size
		if line.ColorName != "" {
			if variant != "" {
				variant += " / "
			}
			variant += line.ColorName
		}
		if variant != "" {
			variant = " (" + variant + ")"
		}
		fmt.Fprintf(&b, "  %d x %s%s — Tk %s\n", line.Quantity, line.ProductName, variant, line.LineTotal.StringFixed(0))
	}
	fmt.Fprintf(&b, "\nSubtotal: Tk %s\nShipping: Tk %s\n", event.Subtotal.StringFixed(0), event.ShippingFee.StringFixed(0))
	if event.DiscountAmount.IsPositive() {
		fmt.Fprintf(&b, "Discount (%s): -Tk %s\n", event.DiscountCode, event.DiscountAmount.StringFixed(0))
	}
	address := event.Address + ", " + event.City
	if event.PostalCode != "" {
		address += " " + event.PostalCode
	}
	fmt.Fprintf(&b, "Total: Tk %s\n\nDelivery to: %s\n", event.GrandTotal.StringFixed(0), address)
	return b.String()
}

func renderAdminAlert(event OrderPlacedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order: %s\nCustomer: %s (%s)\nAddress: %s, %s\nZone: %s, %s shipping\nTotal: Tk %s\n",
		event.OrderNumber, event.CustomerName, event.Phone,
		event.Address, event.City, event.Zone, event.ShippingMethod,
		event.GrandTotal.StringFixed(0))
	if event.DeliveryPayment != nil {
		fmt.Fprintf(&b, "Delivery fee prepaid via %s from %s, txn %s\n",
			event.DeliveryPayment.Provider, event.DeliveryPayment.SenderPhone, event.DeliveryPayment.TransactionID)
	}
	return b.String()
}
