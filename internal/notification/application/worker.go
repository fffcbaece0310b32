package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// MessageReader 消费端抽象，便于测试时注入假队列
type MessageReader interface {
	ReadMessage(ctx context.Context) (*mq.Message, error)
}

// Worker 通知投递循环。
// 每条消息先落库再投递，投递结果回写，失败的消息留在库里供人工重发。
type Worker struct {
	reader        MessageReader
	repo          domain.NotificationRepository
	emailSender   domain.Sender
	webhookSender domain.Sender
	now           func() time.Time
}

// NewWorker 创建通知投递循环
func NewWorker(reader MessageReader, repo domain.NotificationRepository, emailSender, webhookSender domain.Sender) *Worker {
	return &Worker{
		reader:        reader,
		repo:          repo,
		emailSender:   emailSender,
		webhookSender: webhookSender,
		now:           time.Now,
	}
}

// Run 阻塞消费直到 ctx 取消
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			logger.Error(ctx, "failed to read notification message", "error", err)
			continue
		}
		if err := w.Handle(ctx, msg.Value); err != nil {
			logger.Error(ctx, "failed to handle notification message", "error", err)
		}
	}
}

// Handle 处理单条队列消息
func (w *Worker) Handle(ctx context.Context, raw []byte) error {
	var msg QueuedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("failed to decode notification message: %w", err)
	}

	notification := &domain.Notification{
		NotificationID: msg.MessageID,
		UserID:         msg.UserID,
		OrderNumber:    msg.OrderNumber,
		Type:           msg.Type,
		Kind:           msg.Kind,
		Subject:        msg.Subject,
		Content:        msg.Content,
		Target:         msg.Target,
		Status:         domain.NotificationStatusPending,
	}
	if err := w.repo.Create(ctx, notification); err != nil {
		return err
	}

	sender, err := w.senderFor(msg.Type)
	if err != nil {
		notification.MarkFailed(err.Error())
		return w.repo.Update(ctx, notification)
	}

	if err := sender.Send(ctx, msg.Target, msg.Subject, msg.Content); err != nil {
		logger.Error(ctx, "notification delivery failed",
			"notification_id", msg.MessageID, "kind", msg.Kind, "error", err)
		notification.MarkFailed(err.Error())
	} else {
		notification.MarkSent(w.now())
	}
	return w.repo.Update(ctx, notification)
}

func (w *Worker) senderFor(t domain.NotificationType) (domain.Sender, error) {
	switch t {
	case domain.NotificationTypeEmail:
		return w.emailSender, nil
	case domain.NotificationTypeWebhook:
		return w.webhookSender, nil
	default:
		return nil, fmt.Errorf("unknown notification type: %s", t)
	}
}
