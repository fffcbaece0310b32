// Package sender 通知投递通道的具体实现
package sender

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// SMTPSender 邮件投递，走标准 SMTP 协议
type SMTPSender struct {
	addr string
	from string
}

// NewSMTPSender 创建邮件投递器，addr 形如 host:port
func NewSMTPSender(addr, from string) domain.Sender {
	return &SMTPSender{addr: addr, from: from}
}

// Send 实现 domain.Sender.Send
func (s *SMTPSender) Send(ctx context.Context, target, subject, content string) error {
	logger.Info(ctx, "sending email", "target", target, "subject", subject)

	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + target + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		content + "\r\n")

	if err := smtp.SendMail(s.addr, nil, s.from, []string{target}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
