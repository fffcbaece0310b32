package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// WebhookSender 管理端提醒，POST 到配置的 Webhook 地址
type WebhookSender struct {
	client *http.Client
}

// NewWebhookSender 创建 Webhook 投递器
func NewWebhookSender() domain.Sender {
	return &WebhookSender{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send 实现 domain.Sender.Send
func (s *WebhookSender) Send(ctx context.Context, target, subject, content string) error {
	logger.Info(ctx, "sending webhook", "url", target, "subject", subject)

	payload := map[string]string{
		"text": fmt.Sprintf("*%s*\n%s", subject, content),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
